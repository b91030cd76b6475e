package suite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func sampleJPEG(t *testing.T) []byte {
	t.Helper()
	_, data, err := ParseDataURI(SampleImage)
	require.NoError(t, err)
	return data
}

func TestBuiltin_Production(t *testing.T) {
	s, ok := Builtin("production")
	require.True(t, ok)
	require.Len(t, s.Cases, 3)

	assert.Equal(t, "Retail Store Test", s.Cases[0].Name)
	assert.Equal(t, "Toko Kelontong Bahagia", s.Cases[0].BusinessName)
	assert.Equal(t, "retail", s.Cases[0].ExpectedType)
	assert.Equal(t, "restaurant", s.Cases[1].ExpectedType)
	assert.Equal(t, "shoe_store", s.Cases[2].ExpectedType)
	for _, tc := range s.Cases {
		assert.False(t, tc.HasImage(), tc.Name)
	}
	assert.NoError(t, s.Validate())
}

func TestBuiltin_Local(t *testing.T) {
	s, ok := Builtin("LOCAL")
	require.True(t, ok)
	require.Len(t, s.Cases, 4)

	want := map[string]bool{
		"Exact Match":        true,
		"Partial Match":      true,
		"Different Business": false,
		"Similar Keywords":   true,
	}
	for _, tc := range s.Cases {
		require.NotNil(t, tc.ExpectedMatch, tc.Name)
		assert.Equal(t, want[tc.Name], *tc.ExpectedMatch, tc.Name)
		assert.Equal(t, SampleImage, tc.Image)
		assert.Equal(t, LayoutNested, tc.EffectiveLayout())
		assert.Equal(t, "image1", tc.Slot())
		assert.Equal(t, "test_req_{{index}}", tc.RequestID)
		assert.Equal(t, "1.0.0", tc.ClientVersion)
	}
	assert.NoError(t, s.Validate())
}

func TestBuiltin_ReturnsFreshCopy(t *testing.T) {
	a, _ := Builtin("smoke")
	a.Cases[0].Name = "changed"

	b, _ := Builtin("smoke")
	assert.Equal(t, "Smoke Test", b.Cases[0].Name)
	assert.Equal(t, []string{"local", "production", "smoke"}, BuiltinNames())
}

func TestResolve(t *testing.T) {
	s, err := Resolve("smoke")
	require.NoError(t, err)
	assert.Equal(t, "smoke", s.Name)

	_, err = Resolve("nightly")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "local, production, smoke")

	_, err = Resolve(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadFile_YAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "shoe.jpg", sampleJPEG(t))
	path := writeFile(t, dir, "cases.yaml", []byte(`
name: regression
schema: classify.schema.json
defaults:
  imageFile: shoe.jpg
  clientVersion: 2.0.0
  tags: [image]
cases:
  - name: Shoe
    businessName: Toko Sepatu Sport
    expectedType: shoe_store
    tags: [smoke]
  - name: Text only
    businessName: Toko Kelontong Bahagia
    layout: flat
    expectedMatch: false
    skip: flaky upstream
`))

	s, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "regression", s.Name)
	assert.Equal(t, path, s.Path)
	assert.Equal(t, filepath.Join(dir, "classify.schema.json"), s.Schema)
	require.Len(t, s.Cases, 2)

	shoe := s.Cases[0]
	assert.Equal(t, SampleImage, shoe.Image)
	assert.Equal(t, "2.0.0", shoe.ClientVersion)
	assert.ElementsMatch(t, []string{"smoke", "image"}, shoe.Tags)

	second := s.Cases[1]
	assert.Equal(t, LayoutFlat, second.EffectiveLayout())
	require.NotNil(t, second.ExpectedMatch)
	assert.False(t, *second.ExpectedMatch)
	assert.Equal(t, "flaky upstream", second.Skip)

	assert.NoError(t, s.Validate())
}

func TestLoadFile_JSONList(t *testing.T) {
	path := writeFile(t, t.TempDir(), "cases.json", []byte(`[
		{"name": "One", "businessName": "Warung Makan Sederhana", "expectedType": "restaurant"}
	]`))

	s, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "cases", s.Name)
	require.Len(t, s.Cases, 1)
	assert.Equal(t, "restaurant", s.Cases[0].ExpectedType)
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(writeFile(t, dir, "bad.yaml", []byte("cases: [")))
	assert.Error(t, err)

	_, err = LoadFile(writeFile(t, dir, "scalar.yaml", []byte("hello")))
	assert.Error(t, err)

	_, err = LoadFile(writeFile(t, dir, "noimg.yaml", []byte(`
cases:
  - name: A
    businessName: B
    imageFile: nope.jpg
`)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `case "A"`)

	_, err = LoadFile(writeFile(t, dir, "cases.txt", []byte("")))
	assert.Error(t, err)
}

func TestLoadFile_XLSX(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "shop.jpg", sampleJPEG(t))
	path := filepath.Join(dir, "cases.xlsx")

	cases := []TestCase{
		{Name: "Exact Match", BusinessName: "Warung Makan Sederhana", ImageFile: "shop.jpg", ExpectedMatch: boolPtr(true), RequestID: "req_{{index}}"},
		{Name: "Retail", BusinessName: "Toko Kelontong Bahagia", ExpectedType: "retail", Tags: []string{"text", "smoke"}},
	}
	require.NoError(t, WriteXLSXTemplate(path, cases))

	s, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, s.Cases, 2)

	assert.Equal(t, "Exact Match", s.Cases[0].Name)
	assert.Equal(t, SampleImage, s.Cases[0].Image)
	require.NotNil(t, s.Cases[0].ExpectedMatch)
	assert.True(t, *s.Cases[0].ExpectedMatch)
	assert.Equal(t, "req_{{index}}", s.Cases[0].RequestID)

	assert.Equal(t, "retail", s.Cases[1].ExpectedType)
	assert.Nil(t, s.Cases[1].ExpectedMatch)
	assert.Equal(t, []string{"text", "smoke"}, s.Cases[1].Tags)
	assert.NoError(t, s.Validate())
}

func TestSave_KeepsImageFileReference(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "shop.jpg", sampleJPEG(t))
	s := &Suite{Name: "saved", Cases: []TestCase{
		{Name: "A", BusinessName: "Warung", ImageFile: "shop.jpg", Image: SampleImage},
	}}

	path := filepath.Join(dir, "saved.yaml")
	require.NoError(t, s.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "imageFile: shop.jpg")
	assert.NotContains(t, string(data), "base64")
	assert.Equal(t, SampleImage, s.Cases[0].Image)
}

func TestValidate(t *testing.T) {
	s := &Suite{Cases: []TestCase{
		{Name: "", BusinessName: "A"},
		{Name: "Dup", BusinessName: "B"},
		{Name: "Dup", BusinessName: "C"},
		{Name: "Blank", BusinessName: "  "},
		{Name: "BadImage", BusinessName: "D", Image: "data:image/png;base64,%%%"},
		{Name: "NotImage", BusinessName: "E", Image: EncodeDataURI("text/plain", []byte("hi"))},
		{Name: "Layout", BusinessName: "F", Layout: "sideways"},
	}}

	err := s.Validate()
	require.Error(t, err)
	for _, want := range []string{
		"case 1: name is empty",
		"case 3 (Dup): duplicate name, first used by case 2",
		"case 4 (Blank): businessName is empty",
		"case 5 (BadImage): image",
		`case 6 (NotImage): image has MIME type "text/plain"`,
		`case 7 (Layout): unknown layout "sideways"`,
	} {
		assert.Contains(t, err.Error(), want)
	}

	assert.NoError(t, (&Suite{}).Validate())
}

func TestDataURI(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "x.jpeg", sampleJPEG(t))

	uri, err := DataURI(path)
	require.NoError(t, err)
	assert.Equal(t, SampleImage, uri)

	_, err = DataURI(writeFile(t, dir, "empty.png", nil))
	assert.Error(t, err)
}

func TestParseDataURI(t *testing.T) {
	mimeType, data, err := ParseDataURI("data:image/png;base64,aGk=")
	require.NoError(t, err)
	assert.Equal(t, "image/png", mimeType)
	assert.Equal(t, []byte("hi"), data)

	for _, bad := range []string{"aGk=", "data:image/png;base64", "data:image/png,aGk="} {
		_, _, err := ParseDataURI(bad)
		assert.Error(t, err, bad)
	}
}

func TestTestCase_HasTag(t *testing.T) {
	tc := TestCase{Tags: []string{"Smoke"}}
	assert.True(t, tc.HasTag("smoke"))
	assert.False(t, tc.HasTag("image"))
	assert.False(t, tc.HasExpectations())
}
