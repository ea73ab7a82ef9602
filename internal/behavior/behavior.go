// Package behavior resolves citation drift into a policy verdict.
//
// A Behavior is built once per validation run by the caller and passed in
// explicitly. Nothing in this package reads ambient configuration.
package behavior

import (
	"fmt"
	"strings"
)

// Level is the severity applied when cited content has changed.
// Ordering for documentation purposes: Error > Warn > Silent.
type Level int

const (
	LevelSilent Level = iota
	LevelWarn
	LevelError
)

// Annotation controls whether a citation must carry an explanation.
type Annotation int

const (
	// AnnotationAny makes an explanation optional.
	AnnotationAny Annotation = iota
	// AnnotationFootnote requires an explanation.
	AnnotationFootnote
)

// Global decides whether local overrides are honored.
type Global int

const (
	// GlobalLenient lets a local override win when one is present.
	GlobalLenient Global = iota
	// GlobalStrict ignores local overrides.
	GlobalStrict
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarn:
		return "warn"
	case LevelSilent:
		return "silent"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel parses "error", "warn" or "silent" (case-insensitive).
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return LevelError, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "silent", "ignore":
		return LevelSilent, nil
	default:
		return 0, fmt.Errorf("invalid level %q (want error, warn or silent)", s)
	}
}

func (l Level) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

func (l *Level) UnmarshalText(text []byte) error {
	v, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

func (a Annotation) String() string {
	switch a {
	case AnnotationFootnote:
		return "footnote"
	case AnnotationAny:
		return "any"
	default:
		return fmt.Sprintf("annotation(%d)", int(a))
	}
}

// ParseAnnotation parses "footnote" or "any".
func ParseAnnotation(s string) (Annotation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "footnote":
		return AnnotationFootnote, nil
	case "any":
		return AnnotationAny, nil
	default:
		return 0, fmt.Errorf("invalid annotation %q (want footnote or any)", s)
	}
}

func (a Annotation) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *Annotation) UnmarshalText(text []byte) error {
	v, err := ParseAnnotation(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

func (g Global) String() string {
	switch g {
	case GlobalStrict:
		return "strict"
	case GlobalLenient:
		return "lenient"
	default:
		return fmt.Sprintf("global(%d)", int(g))
	}
}

// ParseGlobal parses "strict" or "lenient".
func ParseGlobal(s string) (Global, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict":
		return GlobalStrict, nil
	case "lenient":
		return GlobalLenient, nil
	default:
		return 0, fmt.Errorf("invalid global mode %q (want strict or lenient)", s)
	}
}

func (g Global) MarshalText() ([]byte, error) { return []byte(g.String()), nil }

func (g *Global) UnmarshalText(text []byte) error {
	v, err := ParseGlobal(string(text))
	if err != nil {
		return err
	}
	*g = v
	return nil
}

// Behavior is the {level, annotation, global} policy triple.
type Behavior struct {
	Level      Level      `yaml:"level" json:"level"`
	Annotation Annotation `yaml:"annotation" json:"annotation"`
	Global     Global     `yaml:"global" json:"global"`
}

// Default returns a lenient behavior that warns on drift and does not
// require annotations.
func Default() Behavior {
	return Behavior{Level: LevelWarn, Annotation: AnnotationAny, Global: GlobalLenient}
}

// EffectiveLevel returns local when the behavior is lenient and local is set,
// otherwise the behavior's own level.
func (b Behavior) EffectiveLevel(local *Level) Level {
	if b.Global == GlobalLenient && local != nil {
		return *local
	}
	return b.Level
}

// EffectiveAnnotation mirrors EffectiveLevel for annotations.
func (b Behavior) EffectiveAnnotation(local *Annotation) Annotation {
	if b.Global == GlobalLenient && local != nil {
		return *local
	}
	return b.Annotation
}

// RequiresAnnotation reports whether a citation must carry an explanation.
// A lenient behavior with no local override still requires one.
func (b Behavior) RequiresAnnotation(local *Annotation) bool {
	if b.Global == GlobalLenient && local != nil && *local == AnnotationAny {
		return false
	}
	if b.Global == GlobalStrict && b.Annotation == AnnotationAny {
		return false
	}
	return true
}

// Result is the outcome of validating a comparison.
type Result struct {
	Valid        bool  `json:"valid"`
	Level        Level `json:"level"`
	ShouldFail   bool  `json:"shouldFail"`
	ShouldReport bool  `json:"shouldReport"`
}

// Comparable is anything that can say whether cited and current content agree.
type Comparable interface {
	IsSame() bool
}

// Validate turns a comparison into a verdict. A changed citation is not an
// error; it is an invalid Result whose flags follow the effective level.
func Validate(c Comparable, b Behavior, local *Level) Result {
	if c.IsSame() {
		return Result{Valid: true}
	}
	level := b.EffectiveLevel(local)
	return Result{
		Valid:        false,
		Level:        level,
		ShouldFail:   level == LevelError,
		ShouldReport: level != LevelSilent,
	}
}

func (r Result) String() string {
	if r.Valid {
		return "valid"
	}
	return fmt.Sprintf("invalid (level=%s, fail=%t, report=%t)", r.Level, r.ShouldFail, r.ShouldReport)
}
