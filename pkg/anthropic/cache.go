package anthropic

// SplitCachedSystem builds system blocks where the static instruction
// prefix carries a cache breakpoint and the per-turn dynamic suffix does
// not. The coaching loop rebuilds the suffix every round; caching the
// prefix keeps repeat input tokens cheap.
func SplitCachedSystem(static, dynamic string) []SystemBlock {
	blocks := []SystemBlock{
		{
			Text: static,
			CacheControl: &CacheControl{
				TTL: "5m",
			},
		},
	}
	if dynamic != "" {
		blocks = append(blocks, SystemBlock{Text: dynamic})
	}
	return blocks
}
