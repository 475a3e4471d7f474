package library

// MergeMetadata applies updates over existing metadata. Updated keys
// override existing entries, an empty value deletes the key, and nil
// updates leave the existing map as is. The result is always a fresh
// map (or nil when empty).
func MergeMetadata(existing, updates map[string]string) map[string]string {
	if updates == nil {
		if len(existing) == 0 {
			return nil
		}
		out := make(map[string]string, len(existing))
		for k, v := range existing {
			out[k] = v
		}
		return out
	}
	merged := make(map[string]string, len(existing)+len(updates))
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range updates {
		if v == "" {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}
	if len(merged) == 0 {
		return nil
	}
	return merged
}
