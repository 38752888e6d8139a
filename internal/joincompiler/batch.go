package joincompiler

import (
	"math"

	"github.com/canonica-labs/dagplan/internal/planir"
)

// batchSplits groups splits into chunks of at most size, preserving
// order. size <= 0 is treated as "everything in one batch".
func batchSplits(splits []planir.InputSplit, size int) [][]planir.InputSplit {
	if size <= 0 || size >= len(splits) {
		if len(splits) == 0 {
			return nil
		}
		return [][]planir.InputSplit{splits}
	}
	var batches [][]planir.InputSplit
	for i := 0; i < len(splits); i += size {
		end := i + size
		if end > len(splits) {
			end = len(splits)
		}
		batches = append(batches, splits[i:end])
	}
	return batches
}

// repackInputInfos flattens every InputInfo across splits and re-groups
// them into splits of exactly infosPerSplit, per the input-split-size
// adjustment (§4.3).
func repackInputInfos(splits []planir.InputSplit, infosPerSplit int) []planir.InputSplit {
	var flat []planir.InputInfo
	for _, s := range splits {
		flat = append(flat, s.Infos...)
	}
	if infosPerSplit <= 0 {
		infosPerSplit = 1
	}
	var out []planir.InputSplit
	for i := 0; i < len(flat); i += infosPerSplit {
		end := i + infosPerSplit
		if end > len(flat) {
			end = len(flat)
		}
		out = append(out, planir.InputSplit{Infos: flat[i:end]})
	}
	return out
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return a
	}
	return int(math.Ceil(float64(a) / float64(b)))
}

func countInfos(splits []planir.InputSplit) int {
	n := 0
	for _, s := range splits {
		n += len(s.Infos)
	}
	return n
}
