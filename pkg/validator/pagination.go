package validator

const (
	DefaultLimit = 50
	MaxLimit     = 100
)

// NormalizePage keeps list requests within bounds. A missing limit becomes
// DefaultLimit, a large one is capped at MaxLimit and a negative offset
// becomes zero.
func NormalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultLimit
	} else if limit > MaxLimit {
		limit = MaxLimit
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
