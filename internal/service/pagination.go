package service

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// normalizePerPage falls back when perPage is unset and caps oversized pages.
func normalizePerPage(perPage, fallback int) int {
	if perPage <= 0 {
		return fallback
	}
	if perPage > 100 {
		return 100
	}
	return perPage
}

func calculateTotalPages(total int64, perPage int) int {
	if perPage <= 0 {
		return 1
	}
	if total == 0 {
		return 1
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}
