package metadata

import (
	"context"

	"github.com/canonica-labs/dagplan/internal/auth"
	"github.com/canonica-labs/dagplan/internal/catalog"
	"github.com/canonica-labs/dagplan/internal/catalog/glue"
	"github.com/canonica-labs/dagplan/internal/catalog/unity"
)

// NewGlueCatalog builds a Glue catalog client with its access key/secret/
// session token pulled from store rather than read off disk, so an
// operator's AWS secret never has to sit in a YAML config file. region and
// catalogID are non-secret and passed through as given.
func NewGlueCatalog(ctx context.Context, store *auth.CredentialStore, region, catalogID string) (catalog.Catalog, error) {
	cfg := glue.Config{Region: region, CatalogID: catalogID}

	if v, err := store.Get("catalog.glue.accessKeyId"); err == nil {
		cfg.AccessKeyID = v
	}
	if v, err := store.Get("catalog.glue.secretAccessKey"); err == nil {
		cfg.SecretAccessKey = v
	}
	if v, err := store.Get("catalog.glue.sessionToken"); err == nil {
		cfg.SessionToken = v
	}

	return glue.NewClient(ctx, cfg)
}

// NewUnityCatalog builds a Unity Catalog client with its personal access
// token pulled from store.
func NewUnityCatalog(store *auth.CredentialStore, host string) (catalog.Catalog, error) {
	cfg := unity.Config{Host: host}

	token, err := store.Get("catalog.unity.token")
	if err != nil {
		return nil, err
	}
	cfg.Token = token

	return unity.NewClient(cfg)
}
