package domain

// TimelinePosition is an opaque cursor marking how far a timeline has
// been downloaded. Its value only has meaning to the origin that
// produced it (an id for Twitter-like servers, an URL for pump.io).
type TimelinePosition string

const EmptyPosition TimelinePosition = ""

func (p TimelinePosition) IsEmpty() bool {
	return p == ""
}

func (p TimelinePosition) String() string {
	return string(p)
}
