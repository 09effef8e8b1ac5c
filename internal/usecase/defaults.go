package usecase

import "ccms/internal/domain"

// FallbackDefaults is the lowest configuration layer, used when the store has no row for a key.
func FallbackDefaults(chains []string) []domain.ChainRow {
	all := map[string]map[string]any{
		domain.ChainCompliance: {
			"retries":              map[string]any{"attempts": 3, "base_ms": 400},
			"fail_fast":            true,
			"required_checks":      []any{"license", "wagering", "age_disclaimer", "rg_links"},
			"age_notice":           "18+ only. Please gamble responsibly.",
			"rg_links":             []any{"https://www.begambleaware.org", "https://www.gamcare.org.uk"},
			"affiliate_disclosure": "We may earn a commission if you sign up through links on this page. This does not affect our ratings.",
		},
		domain.ChainMedia: {
			"screenshot":      false,
			"resize_variants": []any{1200, 800, 400},
			"retries":         map[string]any{"attempts": 3, "base_ms": 500},
			"max_images":      6,
			"min_image_bytes": 10240,
			"search_query":    "{casino} casino games lobby",
		},
		domain.ChainSEO: {
			"title_max_length":            60,
			"meta_description_max_length": 158,
			"inject_secondary_keywords":   true,
			"schema_types":                []any{"Review", "FAQPage"},
		},
		domain.ChainContent: {
			"target_word_count":         2500,
			"min_word_ratio":            0.6,
			"include_comparison_tables": true,
			"include_pros_cons":         true,
			"author_name":               "CCMS Editor",
			"sections": []any{
				"Overview", "Licensing and Safety", "Games", "Bonuses",
				"Payments", "Customer Support", "Pros and Cons", "Verdict",
			},
		},
		domain.ChainResearch: {
			"min_fields": 5,
			"queries": []any{
				"{casino} casino license regulator",
				"{casino} casino welcome bonus wagering requirements",
				"{casino} casino payment methods withdrawal time",
				"{casino} casino games software providers",
				"{casino} casino customer support",
			},
			"max_results":          5,
			"retrieval_type":       string(domain.RetrievalSingle),
			"retrieval_limit":      8,
			"similarity_threshold": 0.0,
		},
		domain.ChainPublish: {
			"default_status": "draft",
			"retries":        map[string]any{"attempts": 3, "base_ms": 1000},
			"cta_label":      "Visit Casino",
		},
	}

	rows := make([]domain.ChainRow, 0, len(chains))
	for _, chain := range chains {
		if opts, ok := all[chain]; ok {
			rows = append(rows, domain.ChainRow{Chain: chain, Config: opts})
		}
	}
	return rows
}
