package utils

// Helpers for reading loosely typed JSON attributes

// GetString returns data[key] when it is a string
func GetString(data map[string]interface{}, key string) string {
	if val, ok := data[key].(string); ok {
		return val
	}
	return ""
}

// GetInt returns data[key] as an int. Numbers decoded from JSON arrive as float64.
func GetInt(data map[string]interface{}, key string) int {
	switch val := data[key].(type) {
	case int:
		return val
	case int32:
		return int(val)
	case int64:
		return int(val)
	case float32:
		return int(val)
	case float64:
		return int(val)
	}
	return 0
}
