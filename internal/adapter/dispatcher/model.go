package dispatcher

import (
	"strings"

	"github.com/swhesong/deeplx-gateway/internal/core/domain"
)

// ParseModel implements the §4.E model-string parsing rule: split on '-'.
// Three or more parts -> (source, target) = (parts[1], parts[2]) upper-cased.
// Two parts -> (source="", target=parts[1]) upper-cased (auto-detect).
// Fewer -> reject.
func ParseModel(model string) (sourceLang, targetLang string, err error) {
	parts := strings.Split(model, "-")
	switch {
	case len(parts) >= 3:
		return strings.ToUpper(parts[1]), strings.ToUpper(parts[2]), nil
	case len(parts) == 2:
		return "", strings.ToUpper(parts[1]), nil
	default:
		return "", "", domain.ErrInvalidRequest("Invalid model format")
	}
}
