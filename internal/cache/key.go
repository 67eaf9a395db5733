package cache

import (
	"encoding/binary"
	"math"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/soltixdb/xmrchart/internal/analytics"
	"github.com/soltixdb/xmrchart/internal/analytics/xmr"
)

// AnalysisKey derives a cache key from everything that determines an
// analysis: the metric name, every observation and the options. Equal inputs
// always give equal keys.
func AnalysisKey(metric string, data []analytics.TimeSeriesPoint, opts xmr.Options) string {
	d := xxhash.New()

	var buf [8]byte
	writeUint := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = d.Write(buf[:])
	}

	_, _ = d.WriteString(metric)
	writeUint(uint64(len(data)))
	for _, p := range data {
		// UnixNano overflows outside 1678-2262; seconds and nanos do not
		writeUint(uint64(p.Time.Unix()))
		writeUint(uint64(p.Time.Nanosecond()))
		writeUint(math.Float64bits(p.Value))
	}

	period := opts.SeasonalPeriod
	if period == 0 {
		period = xmr.DefaultSeasonalPeriod
	}
	writeUint(uint64(period))
	writeUint(boolBits(opts.IncludeTrend))
	writeUint(boolBits(opts.IncludeSeasonality))

	if metric == "" {
		metric = "adhoc"
	}
	return "xmr:" + metric + ":" + strconv.FormatUint(d.Sum64(), 16)
}

func boolBits(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
