package hidreport

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var joystickDescriptor = []byte{
	0x05, 0x01, 0x09, 0x04, 0xA1, 0x01, 0x09, 0x01, 0xA1, 0x00, 0x05, 0x01, 0x09, 0x30, 0x09, 0x31, 0x15, 0x00, 0x26, 0xFF, 0x03,
	0x75, 0x0A, 0x95, 0x02, 0x81, 0x02, 0x09, 0x35, 0x15, 0x00, 0x26, 0xFF, 0x00, 0x75, 0x08, 0x95, 0x01, 0x81, 0x02, 0x09, 0x32,
	0x09, 0x36, 0x15, 0x00, 0x26, 0xFF, 0x00, 0x75, 0x08, 0x95, 0x02, 0x81, 0x02, 0x05, 0x09, 0x19, 0x01, 0x29, 0x0E, 0x15, 0x00,
	0x25, 0x01, 0x75, 0x01, 0x95, 0x0E, 0x81, 0x02, 0x05, 0x01, 0x09, 0x39, 0x15, 0x01, 0x25, 0x08, 0x35, 0x00, 0x46, 0x3B, 0x01,
	0x66, 0x14, 0x00, 0x75, 0x04, 0x95, 0x01, 0x81, 0x42, 0x75, 0x02, 0x95, 0x01, 0x81, 0x01, 0xC0, 0xC0,
}

func TestParseDescriptorJoystick(t *testing.T) {
	require.Equal(t, 101, len(joystickDescriptor))

	root, err := ParseDescriptor(joystickDescriptor)
	require.NoError(t, err)
	require.False(t, root.IsLeaf())
	require.Equal(t, CollectionApplication, root.Collection.Type.Kind)
	require.Equal(t, Usage{Page: 0x01, ID: 0x04}, root.Collection.Usage)
	require.Len(t, root.Collection.Children, 1)

	physical := root.Collection.Children[0]
	require.False(t, physical.IsLeaf())
	require.Equal(t, CollectionPhysical, physical.Collection.Type.Kind)
	require.Len(t, physical.Collection.Children, 6)

	fields := root.Fields()
	require.Len(t, fields, 6)

	axes := fields[0]
	require.Equal(t, []Usage{{Page: 0x01, ID: 0x30}, {Page: 0x01, ID: 0x31}}, axes.Usages)
	require.Equal(t, int32(0), axes.LogicalMinimum)
	require.Equal(t, int32(1023), axes.LogicalMaximum)
	require.Equal(t, uint32(10), axes.ReportSize)
	require.Equal(t, uint32(2), axes.ReportCount)
	require.Equal(t, uint32(0), axes.BitOffset)

	throttle := fields[1]
	require.Equal(t, []Usage{{Page: 0x01, ID: 0x35}}, throttle.Usages)
	require.Equal(t, uint32(8), throttle.ReportSize)
	require.Equal(t, uint32(20), throttle.BitOffset)

	buttons := fields[3]
	require.Equal(t, int32(0), buttons.LogicalMinimum)
	require.Equal(t, int32(1), buttons.LogicalMaximum)
	require.Equal(t, &Usage{Page: 0x09, ID: 0x01}, buttons.UsageMinimum)
	require.Equal(t, &Usage{Page: 0x09, ID: 0x0E}, buttons.UsageMaximum)
	require.Equal(t, uint32(14), buttons.ReportCount)

	hat := fields[4]
	require.True(t, hat.HasNullState())
	require.Equal(t, int32(1), hat.LogicalMinimum)
	require.Equal(t, int32(8), hat.LogicalMaximum)
	// physical_minimum/maximum each default to their own logical
	// counterpart when the Global item is absent, and were explicitly
	// set here anyway (0, 315).
	require.Equal(t, int32(0), hat.PhysicalMinimum)
	require.Equal(t, int32(315), hat.PhysicalMaximum)

	padding := fields[5]
	require.True(t, padding.IsConstant())
	require.Equal(t, uint32(2), padding.ReportSize)
}

func TestParseDescriptorPhysicalDefaultsToLogical(t *testing.T) {
	// Usage Page (Generic Desktop), Usage (Joystick), Collection(App),
	// Usage (X), Logical Min -5, Logical Max 5, Report Size 8, Report
	// Count 1, Input (Data,Var,Abs), End Collection. No Physical
	// Minimum/Maximum items at all.
	data := []byte{
		0x05, 0x01, 0x09, 0x04, 0xA1, 0x01,
		0x09, 0x30, 0x15, 0xFB, 0x25, 0x05, 0x75, 0x08, 0x95, 0x01, 0x81, 0x02,
		0xC0,
	}
	root, err := ParseDescriptor(data)
	require.NoError(t, err)
	f := root.Fields()[0]
	require.Equal(t, int32(-5), f.LogicalMinimum)
	require.Equal(t, int32(5), f.LogicalMaximum)
	require.Equal(t, f.LogicalMinimum, f.PhysicalMinimum)
	require.Equal(t, f.LogicalMaximum, f.PhysicalMaximum)
}

func TestParseDescriptorMissingRootCollection(t *testing.T) {
	_, err := ParseDescriptor([]byte{0x05, 0x01})
	require.ErrorIs(t, err, ErrUnbalancedCollections)
}

func TestParseDescriptorEndCollectionUnderflow(t *testing.T) {
	_, err := ParseDescriptor([]byte{0xC0})
	require.ErrorIs(t, err, ErrUnbalancedCollections)
}

func TestParseDescriptorCollectionRequiresExactlyOneUsage(t *testing.T) {
	// Two Usage items before a Collection.
	data := []byte{0x05, 0x01, 0x09, 0x04, 0x09, 0x05, 0xA1, 0x01}
	_, err := ParseDescriptor(data)
	require.ErrorIs(t, err, ErrMalformedUsage)
}

func TestParseDescriptorMissingUsagePage(t *testing.T) {
	// A Usage item with no enclosing Usage Page.
	data := []byte{0x09, 0x04, 0xA1, 0x01}
	_, err := ParseDescriptor(data)
	require.ErrorIs(t, err, ErrMissingUsagePage)
}

func TestParseDescriptorMissingGlobal(t *testing.T) {
	// Collection + Input with only a Usage Page set: no report size,
	// report count or logical bounds.
	data := []byte{0x05, 0x01, 0x09, 0x04, 0xA1, 0x01, 0x81, 0x02, 0xC0}
	_, err := ParseDescriptor(data)
	var missing *MissingGlobalError
	require.ErrorAs(t, err, &missing)
}

func TestParseDescriptorExtendedUsageUsesLow16Bits(t *testing.T) {
	// 4-byte Usage item: page=0x0102 in the high 16 bits, usage=0x0304
	// in the low 16 (not the low 8) per the corrected decoding.
	extended := []byte{
		0x0B, 0x04, 0x03, 0x02, 0x01, // Usage, 4-byte: 0x01020304
		0xA1, 0x01,
		0xC0,
	}
	root, err := ParseDescriptor(extended)
	require.NoError(t, err)
	require.Equal(t, Usage{Page: 0x0102, ID: 0x0304}, root.Collection.Usage)
}
