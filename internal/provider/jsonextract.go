package provider

import "errors"

// ErrNoBalancedJSON is returned by ExtractJSON when text contains no
// balanced '{'...'}' object.
var ErrNoBalancedJSON = errors.New("no balanced json object found")

// ExtractJSON finds the first '{' in text and scans forward counting '{'
// and '}' to find its matching close, returning the substring spanning
// both braces. It tolerates surrounding noise (code fences, commentary)
// that local models commonly emit around the JSON payload.
func ExtractJSON(text string) (string, error) {
	start := -1
	depth := 0
	for i, r := range text {
		switch r {
		case '{':
			if start == -1 {
				start = i
			}
			depth++
		case '}':
			if start == -1 {
				continue
			}
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", ErrNoBalancedJSON
}
