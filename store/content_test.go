package store

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalLegacyBareString(t *testing.T) {
	var c Content
	require.NoError(t, json.Unmarshal([]byte(`"file-42"`), &c))
	assert.Equal(t, KindSingle, c.Kind)
	assert.Equal(t, []string{"file-42"}, c.Files)
}

func TestUnmarshalPackage(t *testing.T) {
	var c Content
	require.NoError(t, json.Unmarshal([]byte(`{"type":"package","files":["f1","f2","f3"]}`), &c))
	assert.Equal(t, KindPackage, c.Kind)
	assert.Equal(t, []string{"f1", "f2", "f3"}, c.Files)
}

func TestUnmarshalPaid(t *testing.T) {
	var c Content
	raw := `{"type":"paid","files":["f1"],"price":99000,"card":"6037991775906427","currency":"IRR"}`
	require.NoError(t, json.Unmarshal([]byte(raw), &c))
	assert.Equal(t, KindPaid, c.Kind)
	assert.Equal(t, 99000, c.Price)
	assert.Equal(t, "6037991775906427", c.Card)
	assert.Equal(t, "IRR", c.Currency)
}

func TestUnmarshalUnknownType(t *testing.T) {
	var c Content
	assert.Error(t, json.Unmarshal([]byte(`{"type":"mystery","files":["f1"]}`), &c))
}

func TestUnmarshalEnforcesFileBounds(t *testing.T) {
	var c Content
	err := json.Unmarshal([]byte(`{"type":"package","files":[]}`), &c)
	assert.ErrorIs(t, err, ErrEmptyPackage)

	err = json.Unmarshal([]byte(`{"type":"paid","files":[],"price":1}`), &c)
	assert.ErrorIs(t, err, ErrEmptyPackage)

	oversized := `{"type":"package","files":["f","f","f","f","f","f","f","f","f"]}`
	err = json.Unmarshal([]byte(oversized), &c)
	assert.ErrorIs(t, err, ErrPackageFull)
}

func TestMarshalSingleKeepsBareStringFormat(t *testing.T) {
	data, err := json.Marshal(NewSingle("file-42"))
	require.NoError(t, err)
	assert.Equal(t, `"file-42"`, string(data))
}

func TestMarshalRoundTrip(t *testing.T) {
	pkg, err := NewPackage([]string{"a", "b"})
	require.NoError(t, err)
	paid, err := NewPaidPackage([]string{"c"}, 5000, "1111", "IRR")
	require.NoError(t, err)

	for _, in := range []Content{NewSingle("x"), pkg, paid} {
		data, err := json.Marshal(in)
		require.NoError(t, err)
		var out Content
		require.NoError(t, json.Unmarshal(data, &out))
		assert.Equal(t, in, out)
	}
}

func TestPackageBounds(t *testing.T) {
	_, err := NewPackage(nil)
	assert.ErrorIs(t, err, ErrEmptyPackage)

	files := make([]string, MaxPackageSize+1)
	for i := range files {
		files[i] = "f"
	}
	_, err = NewPackage(files)
	assert.ErrorIs(t, err, ErrPackageFull)

	_, err = NewPaidPackage(nil, 1, "c", "IRR")
	assert.ErrorIs(t, err, ErrEmptyPackage)

	_, err = NewPackage(files[:MaxPackageSize])
	assert.NoError(t, err)
}
