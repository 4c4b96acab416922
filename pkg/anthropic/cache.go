package anthropic

// BuildCachedSystemBlocks wraps a fixed instruction prompt in a system block
// with a 1-hour cache breakpoint. The cascade reuses the same instructions
// across every enrichment batch and every discovery run, so after the first
// request the prompt tokens are read from the cache instead of re-billed.
func BuildCachedSystemBlocks(text string) []SystemBlock {
	return []SystemBlock{
		{
			Text: text,
			CacheControl: &CacheControl{
				TTL: "1h",
			},
		},
	}
}
