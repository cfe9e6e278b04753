package importers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV(t *testing.T) {
	data := `First Name,Last Name,Email,Phone,Company,Title,State,Notes
Jane,Doe,jane@acme.com,(555) 123-4567,Acme Corp,CFO,NY,met at booth
Bob,Roe,bob@beta.com,,Beta LLC,,TX,
`
	records, err := ParseCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, records, 2)

	jane := records[0]
	assert.Equal(t, "Jane", jane.FirstName)
	assert.Equal(t, "Doe", jane.LastName)
	assert.Equal(t, "jane@acme.com", jane.Email)
	assert.Equal(t, "(555) 123-4567", jane.Phone)
	assert.Equal(t, "Acme Corp", jane.CompanyName)
	assert.Equal(t, "CFO", jane.Title)
	assert.Equal(t, "NY", jane.State)
	assert.Equal(t, "met at booth", jane.Notes)

	bob := records[1]
	assert.Equal(t, "Bob", bob.FirstName)
	assert.Empty(t, bob.Phone)
	assert.Empty(t, bob.Title)
}

func TestParseCSVHeaderAliases(t *testing.T) {
	data := `FIRSTNAME,LASTNAME,E-Mail,Mobile,Organization
Jane,Doe,jane@acme.com,5551234567,Acme
`
	records, err := ParseCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Jane", records[0].FirstName)
	assert.Equal(t, "jane@acme.com", records[0].Email)
	assert.Equal(t, "5551234567", records[0].Phone)
	assert.Equal(t, "Acme", records[0].CompanyName)
}

func TestParseCSVFullNameColumn(t *testing.T) {
	data := `Name,Email
Jane Q. Doe,jane@acme.com
Cher,cher@solo.com
`
	records, err := ParseCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Jane Q.", records[0].FirstName)
	assert.Equal(t, "Doe", records[0].LastName)
	assert.Equal(t, "Cher", records[1].FirstName)
	assert.Empty(t, records[1].LastName)
}

func TestParseCSVSkipsEmptyRows(t *testing.T) {
	data := `first_name,last_name,email
Jane,Doe,jane@acme.com
,,
Bob,Roe,bob@beta.com
`
	records, err := ParseCSV(strings.NewReader(data))
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestParseCSVBOMHeader(t *testing.T) {
	data := "\ufefffirst_name,email\nJane,jane@acme.com\n"
	records, err := ParseCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Jane", records[0].FirstName)
}

func TestParseCSVErrors(t *testing.T) {
	_, err := ParseCSV(strings.NewReader(""))
	require.Error(t, err)

	// Headers that map to nothing are rejected up front.
	_, err = ParseCSV(strings.NewReader("foo,bar\n1,2\n"))
	require.Error(t, err)
}
