package upnp

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// ParsePropertySet decodes the body of a GENA notification: a
// propertyset document in the urn:schemas-upnp-org:event-1-0 namespace
// containing one variable per property element. Variable values are
// returned as raw strings; values that are themselves escaped XML
// documents (LastChange, ZoneGroupState) come back unescaped once and
// are parsed further by the owning service variant.
func ParsePropertySet(data []byte) (map[string]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	vars := make(map[string]string)

	// Depth within the document: 1 = propertyset, 2 = property,
	// 3 = the variable element whose character data we collect.
	depth := 0
	var name string
	var value strings.Builder
	sawPropertySet := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("property set: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch depth {
			case 1:
				if t.Name.Local != "propertyset" {
					return nil, fmt.Errorf("property set: unexpected root element %q", t.Name.Local)
				}
				sawPropertySet = true
			case 2:
				if t.Name.Local != "property" {
					return nil, fmt.Errorf("property set: unexpected element %q", t.Name.Local)
				}
			case 3:
				name = t.Name.Local
				value.Reset()
			}
		case xml.CharData:
			if depth == 3 {
				value.Write(t)
			}
		case xml.EndElement:
			if depth == 3 && name != "" {
				vars[name] = value.String()
				name = ""
			}
			depth--
		}
	}

	if !sawPropertySet {
		return nil, fmt.Errorf("property set: empty document")
	}
	return vars, nil
}
