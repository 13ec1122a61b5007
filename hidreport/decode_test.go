package hidreport

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func buildLeaf(f Field) *Node[Field] {
	return leafNode(f)
}

func buildCollection(children ...*Node[Field]) *Node[Field] {
	return &Node[Field]{Collection: &CollectionNode[Field]{
		Type:     CollectionType{Kind: CollectionApplication},
		Usage:    Usage{Page: 0x01, ID: 0x04},
		Children: children,
	}}
}

func TestDecodeJoystick(t *testing.T) {
	root, err := ParseDescriptor(joystickDescriptor)
	require.NoError(t, err)

	// byte layout: axes(10,10 bits)=20b, throttle(8)=8b, rudder+Z(8,8)=16b,
	// buttons(14x1)=14b, hat(4)+pad(2)=6b -> total 64 bits = 8 bytes.
	// hat occupies bits 58..61, i.e. byte 7 bits 2..5; set it to 2.
	report := make([]byte, 8)
	report[7] = 2 << 2
	decoded, err := Decode(root, report)
	require.NoError(t, err)

	inputs := Fields(decoded)
	require.Len(t, inputs, 6)

	axes := *inputs[0]
	require.Len(t, axes, 2)
	require.Equal(t, ValueUInt, axes[0].Value.Kind)

	hat := *inputs[4]
	require.Len(t, hat, 1)
	require.Equal(t, ValueUInt, hat[0].Value.Kind)
	require.Equal(t, uint32(2), hat[0].Value.UInt)

	padding := *inputs[5]
	require.Len(t, padding, 0) // Constant fields never produce values
}

func TestDecodeHatSwitchNullState(t *testing.T) {
	root, err := ParseDescriptor(joystickDescriptor)
	require.NoError(t, err)
	report := make([]byte, 8) // hat nibble = 0, out of [1,8]
	decoded, err := Decode(root, report)
	require.NoError(t, err)
	hat := *Fields(decoded)[4]
	require.Equal(t, ValueNone, hat[0].Value.Kind)
}

func TestDecodeReportIDRouting(t *testing.T) {
	one := uint8(1)
	two := uint8(2)
	tree := buildCollection(
		buildLeaf(Field{ReportType: ReportInput, ReportID: &one, ReportSize: 8, ReportCount: 1, LogicalMinimum: 0, LogicalMaximum: 255, BitOffset: 0}),
		buildLeaf(Field{ReportType: ReportInput, ReportID: &two, ReportSize: 8, ReportCount: 1, LogicalMinimum: 0, LogicalMaximum: 255, BitOffset: 0}),
	)

	decoded, err := Decode(tree, []byte{0x02, 0x55})
	require.NoError(t, err)
	values := Fields(decoded)
	require.Nil(t, *values[0]) // ReportID 1 field not part of this buffer
	require.Equal(t, uint32(0x55), (*values[1])[0].Value.UInt)

	_, err = Decode(tree, []byte{0x09, 0x00})
	require.ErrorIs(t, err, ErrReportIDMismatch)
}

func TestDecodeStickyLastUsage(t *testing.T) {
	f := Field{
		ReportType:  ReportInput,
		ReportSize:  8,
		ReportCount: 5,
		LogicalMinimum: 0,
		LogicalMaximum: 255,
		Usages: []Usage{
			{Page: 1, ID: 1},
			{Page: 1, ID: 2},
			{Page: 1, ID: 3},
		},
	}
	tree := buildCollection(buildLeaf(f))
	decoded, err := Decode(tree, []byte{1, 2, 3, 4, 5})
	require.NoError(t, err)
	values := *Fields(decoded)[0]
	require.Len(t, values, 5)
	require.Equal(t, []Usage{{1, 1}, {1, 2}, {1, 3}, {1, 3}, {1, 3}}, []Usage{
		values[0].Usage, values[1].Usage, values[2].Usage, values[3].Usage, values[4].Usage,
	})
}

func TestDecodeUsageMinimumExpansion(t *testing.T) {
	f := Field{
		ReportType:   ReportInput,
		ReportSize:   1,
		ReportCount:  14,
		LogicalMinimum: 0,
		LogicalMaximum: 1,
		UsageMinimum: &Usage{Page: 0x09, ID: 0x01},
	}
	tree := buildCollection(buildLeaf(f))
	report := make([]byte, 2)
	decoded, err := Decode(tree, report)
	require.NoError(t, err)
	values := *Fields(decoded)[0]
	require.Len(t, values, 14)
	for i, v := range values {
		require.Equal(t, Usage{Page: 0x09, ID: uint16(0x01 + i)}, v.Usage)
	}
	require.Equal(t, Usage{Page: 0x09, ID: 0x0E}, values[13].Usage)
}

func TestDecodeReportTooShort(t *testing.T) {
	f := Field{ReportType: ReportInput, ReportSize: 16, ReportCount: 1, LogicalMinimum: 0, LogicalMaximum: 0xFFFF}
	tree := buildCollection(buildLeaf(f))
	_, err := Decode(tree, []byte{0x01})
	require.ErrorIs(t, err, ErrReportTooShort)
}

func TestDecodeSignedField(t *testing.T) {
	f := Field{ReportType: ReportInput, ReportSize: 8, ReportCount: 1, LogicalMinimum: -128, LogicalMaximum: 127}
	tree := buildCollection(buildLeaf(f))
	decoded, err := Decode(tree, []byte{0xE5})
	require.NoError(t, err)
	v := (*Fields(decoded)[0])[0].Value
	require.Equal(t, ValueInt, v.Kind)
	require.Equal(t, int32(-27), v.Int)
}

// TestDecodeIsIdempotent decodes the same report against the same tree
// twice and requires the resulting trees be structurally identical,
// down to collection nesting and per-field usage assignment -
// require.Equal on individual value slices elsewhere in this file
// never compares a whole decoded tree against another.
func TestDecodeIsIdempotent(t *testing.T) {
	root, err := ParseDescriptor(joystickDescriptor)
	require.NoError(t, err)
	report := []byte{0, 0, 0, 0, 0, 0, 0, 2 << 2}

	first, err := Decode(root, report)
	require.NoError(t, err)
	second, err := Decode(root, report)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("decode is not idempotent (-first +second):\n%s", diff)
	}
}

func TestDecodeBoolField(t *testing.T) {
	f := Field{ReportType: ReportInput, ReportSize: 1, ReportCount: 1, LogicalMinimum: 0, LogicalMaximum: 1}
	tree := buildCollection(buildLeaf(f))
	decoded, err := Decode(tree, []byte{0x01})
	require.NoError(t, err)
	v := (*Fields(decoded)[0])[0].Value
	require.Equal(t, ValueBool, v.Kind)
	require.True(t, v.Bool)
}
