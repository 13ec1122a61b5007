package hidreport

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenizerShortItems(t *testing.T) {
	// Usage Page (Generic Desktop), Usage (Joystick), Collection (Application)
	data := []byte{0x05, 0x01, 0x09, 0x04, 0xA1, 0x01}
	tok := NewTokenizer(data)

	item, err := tok.Next()
	require.NoError(t, err)
	require.Equal(t, Item{Class: ClassGlobal, Tag: globalTagUsagePage, Data: 0x01, Size: 1}, item)

	item, err = tok.Next()
	require.NoError(t, err)
	require.Equal(t, Item{Class: ClassLocal, Tag: localTagUsage, Data: 0x04, Size: 1}, item)

	item, err = tok.Next()
	require.NoError(t, err)
	require.Equal(t, Item{Class: ClassMain, Tag: mainTagCollection, Data: 0x01, Size: 1}, item)

	_, err = tok.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestTokenizerTruncatedItem(t *testing.T) {
	tok := NewTokenizer([]byte{0x26, 0xFF}) // Logical Maximum, 2-byte item, only 1 data byte present
	_, err := tok.Next()
	require.ErrorIs(t, err, ErrTruncatedItem)
}

func TestTokenizerLongItem(t *testing.T) {
	tok := NewTokenizer([]byte{0xFE, 0x02, 0x00, 0x00, 0x00})
	_, err := tok.Next()
	require.ErrorIs(t, err, ErrUnsupportedLongItem)
}

func TestTokenizerTotality(t *testing.T) {
	data := []byte{0x05, 0x01, 0x09, 0x04, 0xA1, 0x01, 0xC0}
	tok := NewTokenizer(data)
	consumed := 0
	for {
		item, err := tok.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		consumed += 1 + item.Size
	}
	require.Equal(t, len(data), consumed)
}
