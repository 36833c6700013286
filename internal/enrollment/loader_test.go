package enrollment

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `policy_id,effective_date,carrier,expected_commission,member_name,plan_name,annual_premium
AET001234,2025-01-15,Aetna,"$1,250.00",Jordan Blake,PPO Gold,15000.00
AET005678,01/20/2025,aetna,300.00,Casey Moore,HMO Silver,
,2025-02-01,aetna,100.00,No Policy,,
CIG000111,not-a-date,cigna,200.00,Bad Date,,
CIG000222,2025-02-10,cigna,abc,Bad Amount,,
HUM000333,2025-03-05,Humana,75.50,Riley Chen,Dental,bogus
`

func TestRead_SkipsMalformedRows(t *testing.T) {
	records, err := Read(strings.NewReader(sampleCSV), "enrollment_info.csv")
	require.NoError(t, err)
	require.Len(t, records, 3)

	first := records[0]
	assert.Equal(t, "AET001234", first.PolicyID)
	assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), first.EffectiveDate)
	assert.True(t, first.ExpectedAmount.Equal(decimal.RequireFromString("1250.00")))
	assert.Equal(t, "aetna", first.CarrierCode)
	assert.Equal(t, "Jordan Blake", first.MemberName)
	assert.True(t, first.AnnualPremium.Equal(decimal.RequireFromString("15000.00")))

	// Slash dates parse; carrier codes are lowercased.
	assert.Equal(t, time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC), records[1].EffectiveDate)
	assert.Equal(t, "aetna", records[1].CarrierCode)

	// A bad annual premium is not load-fatal for the row.
	assert.Equal(t, "HUM000333", records[2].PolicyID)
	assert.True(t, records[2].AnnualPremium.IsZero())
}

func TestRead_MissingRequiredColumnFailsLoad(t *testing.T) {
	// "policyid" instead of "policy_id": every row would fail conversion, so
	// the load must error up front rather than succeed with zero records.
	csv := "policyid,effective_date,carrier,expected_commission\n" +
		"A1,2025-01-01,aetna,10.00\n"

	records, err := Read(strings.NewReader(csv), "renamed.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "policy_id")
	assert.Nil(t, records)

	// Multiple absent columns are all named.
	_, err = Read(strings.NewReader("policy_id,carrier\nA1,aetna\n"), "short.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "effective_date")
	assert.Contains(t, err.Error(), "expected_commission")
}

func TestRead_PreservesFileOrder(t *testing.T) {
	csv := "policy_id,effective_date,carrier,expected_commission\n" +
		"B1,2025-01-01,bcbs,10.00\n" +
		"A1,2025-01-01,aetna,20.00\n"

	records, err := Read(strings.NewReader(csv), "test.csv")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "B1", records[0].PolicyID)
	assert.Equal(t, "A1", records[1].PolicyID)
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enrollment_info.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	records, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}
