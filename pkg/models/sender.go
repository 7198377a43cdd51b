package models

// SenderData describes the originator of an inbound connection: the client
// software, its network address and a best-effort location rendered in the
// client's preferred language.
//
// Every field is optional. A nil field means the value could not be
// determined; it is omitted from the JSON form rather than sent empty.
type SenderData struct {
	UserAgent *string `json:"ua,omitempty"`
	Addr      *string `json:"addr,omitempty"`
	City      *string `json:"city,omitempty"`
	Region    *string `json:"region,omitempty"`
	Country   *string `json:"country,omitempty"`
}

// IsEmpty reports whether no field was resolved.
func (s SenderData) IsEmpty() bool {
	return s.UserAgent == nil && s.Addr == nil && s.City == nil && s.Region == nil && s.Country == nil
}

// HasLocation reports whether any of the geographic fields was resolved.
func (s SenderData) HasLocation() bool {
	return s.City != nil || s.Region != nil || s.Country != nil
}

// Text returns the value of an optional field, or "" when it is unset.
func Text(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
