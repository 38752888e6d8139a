package planir

import "strings"

// Scheme identifies an object storage backend, consumed by
// internal/objstorage.
type Scheme string

const (
	SchemeS3    Scheme = "S3"
	SchemeMinio Scheme = "MINIO"
	SchemeRedis Scheme = "REDIS"
	SchemeLocal Scheme = "LOCAL"
)

// StorageInfo identifies where a file or directory lives.
type StorageInfo struct {
	Scheme    Scheme `json:"scheme"`
	Endpoint  string `json:"endpoint"`
	Region    string `json:"region,omitempty"`
	AccessKey string `json:"accessKey,omitempty"`
	SecretKey string `json:"secretKey,omitempty"`
}

// OutputInfo describes a single output file.
type OutputInfo struct {
	Storage StorageInfo `json:"storage"`
	Path    string      `json:"path"`
}

// MultiOutputInfo describes a set of output files produced by one worker
// input (e.g. `<i>/join` and, for outer joins, `<i>/join_left`).
type MultiOutputInfo struct {
	Storage StorageInfo `json:"storage"`
	Paths   []string    `json:"paths"`
}

// JoinPath builds an intermediate path following invariant 7's layout:
// `<intermediateRoot>/<queryId>/<schema>/<table>/<suffix>` with exactly one
// slash between components regardless of whether callers already included
// trailing/leading slashes.
func JoinPath(components ...string) string {
	var b strings.Builder
	for i, c := range components {
		c = strings.Trim(c, "/")
		if c == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('/')
		}
		b.WriteString(c)
		_ = i
	}
	b.WriteByte('/')
	return b.String()
}

// FilePath appends a file name to a directory prefix built by JoinPath,
// ensuring exactly one slash between them.
func FilePath(dir, name string) string {
	return strings.TrimRight(dir, "/") + "/" + strings.TrimLeft(name, "/")
}

