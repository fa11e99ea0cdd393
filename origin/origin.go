package origin

import (
	"fmt"
	"regexp"
	"strings"
)

// Type identifies one supported backend family. The set is closed:
// adding a new family means adding a constant here and an adapter in
// the connection package.
type Type int

const (
	TypeUnknown   Type = 0
	TypeTwitter   Type = 1
	TypePumpio    Type = 2
	TypeGnuSocial Type = 3
)

const (
	usernameRegexDefault = `[a-zA-Z_0-9/.\-()]+`
	usernameRegexPumpio  = `[a-zA-Z_0-9/.\-()]+@[a-zA-Z_0-9/.\-()]+`

	// TextLimitMaximum is used where an origin has no hard message limit.
	TextLimitMaximum = 5000

	// DownloadLimitMax caps the page size sent to any origin.
	DownloadLimitMax = 200
)

func (t Type) String() string {
	switch t {
	case TypeTwitter:
		return "Twitter"
	case TypePumpio:
		return "Pump.io"
	case TypeGnuSocial:
		return "GNU social"
	default:
		return "?"
	}
}

// TypeFromName matches a configured origin type name, case-insensitively.
func TypeFromName(name string) Type {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "twitter":
		return TypeTwitter
	case "pump.io", "pumpio":
		return TypePumpio
	case "gnu social", "gnusocial":
		return TypeGnuSocial
	default:
		return TypeUnknown
	}
}

// Origin describes one concrete backend server: its family, its id
// namespace and its URL conventions.
type Origin struct {
	ID   int64
	Type Type
	Name string
	URL  string
}

// Empty is the zero origin, used where an entity has not been bound
// to a backend yet.
var Empty = Origin{}

func (o Origin) IsEmpty() bool {
	return o.ID == 0 && o.Type == TypeUnknown
}

func (o Origin) String() string {
	return fmt.Sprintf("Origin[id:%d, type:%s, url:%s]", o.ID, o.Type, o.URL)
}

// BasicPath is the path prefix of the origin's REST API.
func (o Origin) BasicPath() string {
	switch o.Type {
	case TypeTwitter:
		return "1.1"
	default:
		return "api"
	}
}

// TextLimit is the maximum number of characters in a note body.
func (o Origin) TextLimit() int {
	switch o.Type {
	case TypeTwitter:
		return 140
	default:
		return TextLimitMaximum
	}
}

// ShortURLLength is the length links take after the origin shortens
// them, 0 when the origin leaves links alone.
func (o Origin) ShortURLLength() int {
	if o.Type == TypeTwitter {
		return 23
	}
	return 0
}

func (o Origin) usernameRegex() string {
	if o.Type == TypePumpio {
		return usernameRegexPumpio
	}
	return usernameRegexDefault
}

// IsUsernameValid reports whether the name matches the origin's
// username rules.
func (o Origin) IsUsernameValid(username string) bool {
	if username == "" {
		return false
	}
	matched, err := regexp.MatchString("^"+o.usernameRegex()+"$", username)
	return err == nil && matched
}

// FixDownloadLimit clamps a requested page size to what the origin
// accepts.
func (o Origin) FixDownloadLimit(limit int) int {
	if limit <= 0 || limit > DownloadLimitMax {
		return DownloadLimitMax
	}
	return limit
}

// Host returns the hostname part of the origin URL.
func (o Origin) Host() string {
	host := o.URL
	if idx := strings.Index(host, "://"); idx >= 0 {
		host = host[idx+3:]
	}
	host = strings.TrimSuffix(host, "/")
	if idx := strings.Index(host, "/"); idx >= 0 {
		host = host[:idx]
	}
	return host
}

// Registry holds the configured origins. It is constructed explicitly
// and passed around, there is no process-wide instance.
type Registry struct {
	byID map[int64]Origin
}

func NewRegistry(origins ...Origin) *Registry {
	r := &Registry{byID: make(map[int64]Origin)}
	for _, o := range origins {
		r.byID[o.ID] = o
	}
	return r
}

func (r *Registry) FromID(id int64) Origin {
	if o, ok := r.byID[id]; ok {
		return o
	}
	return Empty
}

func (r *Registry) FromName(name string) Origin {
	for _, o := range r.byID {
		if strings.EqualFold(o.Name, name) {
			return o
		}
	}
	return Empty
}

func (r *Registry) All() []Origin {
	all := make([]Origin, 0, len(r.byID))
	for _, o := range r.byID {
		all = append(all, o)
	}
	return all
}
