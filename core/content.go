package core

// Part is one element of a Content.
// The set of parts is closed: Text, InlineData and FileData.
type Part interface {
	isPart()
}

// Text is a plain text part.
type Text string

// InlineData carries raw media bytes in the request body.
type InlineData struct {
	MIMEType string
	Data     []byte
}

// FileData references media previously uploaded to the service.
type FileData struct {
	MIMEType string
	URI      string
}

func (Text) isPart()       {}
func (InlineData) isPart() {}
func (FileData) isPart()   {}

func clonePart(p Part) Part {
	if d, ok := p.(InlineData); ok {
		d.Data = append([]byte(nil), d.Data...)
		return d
	}
	return p
}

// UserText returns a user turn holding a single text part.
func UserText(s string) Content {
	return Content{Role: RoleUser, Parts: []Part{Text(s)}}
}

// ModelText returns a model turn holding a single text part.
func ModelText(s string) Content {
	return Content{Role: RoleModel, Parts: []Part{Text(s)}}
}

// appendPart adds p to parts, merging adjacent text.
func appendPart(parts []Part, p Part) []Part {
	if t, ok := p.(Text); ok && len(parts) > 0 {
		if prev, ok := parts[len(parts)-1].(Text); ok {
			parts[len(parts)-1] = prev + t
			return parts
		}
	}
	return append(parts, clonePart(p))
}
