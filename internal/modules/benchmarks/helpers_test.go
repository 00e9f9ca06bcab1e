package benchmarks

import "time"

var testTime = time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
