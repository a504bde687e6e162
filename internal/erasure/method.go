package erasure

import (
	"fmt"
	"net/http"
	"strings"

	"go-doc-lifecycle/internal/model"
	"go-doc-lifecycle/pkg/apierror"
)

type Method string

// MaxPasses caps caller-supplied pass overrides.
const MaxPasses = 100

const (
	MethodSimple  Method = "simple"
	MethodDoD     Method = "dod"
	MethodGutmann Method = "gutmann"
)

// DefaultPasses returns the pass count a method uses when none is given.
func (m Method) DefaultPasses() int {
	switch m {
	case MethodDoD:
		return 3
	case MethodGutmann:
		return 35
	default:
		return 1
	}
}

// Label is the human name recorded in the audit trail.
func (m Method) Label() string {
	switch m {
	case MethodDoD:
		return "DoD 5220.22-M"
	case MethodGutmann:
		return "Gutmann"
	default:
		return "simple"
	}
}

// ParseMethod accepts the short names plus the long DoD/Gutmann spellings.
// An empty string yields fallback.
func ParseMethod(raw string, fallback Method) (Method, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.NewReplacer(" ", "", "-", "", "_", "", ".", "").Replace(normalized)

	switch normalized {
	case "":
		if fallback == "" {
			return MethodSimple, nil
		}
		return fallback, nil
	case "simple", "random":
		return MethodSimple, nil
	case "dod", "dod522022m":
		return MethodDoD, nil
	case "gutmann":
		return MethodGutmann, nil
	}

	return "", apierror.Wrap(model.ErrInvalidOverwriteMethod, "INVALID_OVERWRITE_METHOD",
		fmt.Sprintf("unknown overwrite method %q", raw), "method must be one of simple, dod, gutmann", http.StatusBadRequest)
}

// Options selects how a file is overwritten. Zero values mean the defaults.
type Options struct {
	Method Method
	Passes int
}

// Resolve fills in defaults and validates the pass count.
func (o Options) Resolve(fallback Method) (Options, error) {
	method, err := ParseMethod(string(o.Method), fallback)
	if err != nil {
		return Options{}, err
	}

	if o.Passes < 0 || o.Passes > MaxPasses {
		return Options{}, apierror.Wrap(model.ErrInvalidInput, "INVALID_OVERWRITE_PASSES",
			fmt.Sprintf("overwrite passes must be between 1 and %d", MaxPasses), fmt.Sprintf("passes=%d", o.Passes), http.StatusBadRequest)
	}

	passes := o.Passes
	if passes == 0 {
		passes = method.DefaultPasses()
	}

	return Options{Method: method, Passes: passes}, nil
}
