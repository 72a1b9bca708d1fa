package upnp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePropertySet(t *testing.T) {
	body := `<?xml version="1.0"?>
<e:propertyset xmlns:e="urn:schemas-upnp-org:event-1-0">
  <e:property>
    <LastChange>&lt;Event&gt;&lt;InstanceID val="0"/&gt;&lt;/Event&gt;</LastChange>
  </e:property>
  <e:property>
    <SinkProtocolInfo>http-get:*</SinkProtocolInfo>
  </e:property>
</e:propertyset>`

	vars, err := ParsePropertySet([]byte(body))
	require.NoError(t, err)

	// The escaped inner document must come back as parseable XML.
	assert.Equal(t, `<Event><InstanceID val="0"/></Event>`, vars["LastChange"])
	assert.Equal(t, "http-get:*", vars["SinkProtocolInfo"])
}

func TestParsePropertySetRejectsWrongRoot(t *testing.T) {
	_, err := ParsePropertySet([]byte(`<foo><bar>x</bar></foo>`))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "unexpected root"))
}

func TestParsePropertySetRejectsMalformed(t *testing.T) {
	_, err := ParsePropertySet([]byte(`<e:propertyset xmlns:e="urn:schemas-upnp-org:event-1-0"><e:property><X>1</X>`))
	require.Error(t, err)
}

func TestParsePropertySetEmpty(t *testing.T) {
	_, err := ParsePropertySet(nil)
	require.Error(t, err)
}
