package history

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, input []byte) []string {
	t.Helper()
	scanner := NewRecordScanner(bytes.NewReader(input))
	var records []string
	for scanner.Scan() {
		records = append(records, scanner.Record())
	}
	require.NoError(t, scanner.Err())
	return records
}

func TestScanSimpleLines(t *testing.T) {
	records := scanAll(t, []byte(": 1732577005:0;tf fmt -recursive\n: 1732577037:0;tf apply\n"))
	assert.Equal(t, []string{": 1732577005:0;tf fmt -recursive", ": 1732577037:0;tf apply"}, records)
}

func TestScanEmptyInput(t *testing.T) {
	assert.Empty(t, scanAll(t, nil))
}

func TestScanJoinsContinuationLines(t *testing.T) {
	input := ": 1731622185:9;brew update\\\nbrew install opentofu\n: 1732659789:0;reload\n"
	records := scanAll(t, []byte(input))

	require.Len(t, records, 2)
	assert.Equal(t, ": 1731622185:9;brew update\\\nbrew install opentofu", records[0])
	assert.Equal(t, ": 1732659789:0;reload", records[1])
}

func TestScanJoinsMultipleContinuationLines(t *testing.T) {
	input := ": 1733005037:0;docker run -d --name mysql \\\n-v mysql:/var/lib/mysql \\\n-p 3306:3306 mysql:8\n"
	records := scanAll(t, []byte(input))

	require.Len(t, records, 1)
	assert.Equal(t, ": 1733005037:0;docker run -d --name mysql \\\n-v mysql:/var/lib/mysql \\\n-p 3306:3306 mysql:8", records[0])
}

func TestScanRetainsFinalPartialRecord(t *testing.T) {
	// A continuation that never terminates is emitted, not dropped.
	records := scanAll(t, []byte("plain\n: 1732663091:0;echo 'unfinished\\\n"))

	require.Len(t, records, 2)
	assert.Equal(t, "plain", records[0])
	assert.Equal(t, ": 1732663091:0;echo 'unfinished\\", records[1])
}

func TestScanMissingFinalNewline(t *testing.T) {
	records := scanAll(t, []byte("first\nsecond"))
	assert.Equal(t, []string{"first", "second"}, records)
}

func TestScanTrimsTrailingWhitespace(t *testing.T) {
	records := scanAll(t, []byte("ls -la   \t\npwd\r\n"))
	assert.Equal(t, []string{"ls -la", "pwd"}, records)
}

func TestScanUnmetafiesBytes(t *testing.T) {
	// "é" is 0xC3 0xA9; zsh stores the second byte metafied as 0x83 followed
	// by 0xA9^0x20.
	input := []byte{':', ' ', 'x', 0xC3, metaMarker, 0xA9 ^ metaMask, '\n'}
	records := scanAll(t, input)

	require.Len(t, records, 1)
	assert.Equal(t, ": xé", records[0])
}

func TestScanMetaMarkerWithoutFollower(t *testing.T) {
	// A bare marker byte survives unmetafying and is then rejected as
	// invalid UTF-8.
	scanner := NewRecordScanner(bytes.NewReader([]byte{'o', 'k', '\n', 'a', metaMarker, '\n'}))

	require.True(t, scanner.Scan())
	assert.Equal(t, "ok", scanner.Record())
	require.False(t, scanner.Scan())

	var decodeErr *DecodeError
	require.ErrorAs(t, scanner.Err(), &decodeErr)
	assert.Equal(t, 2, decodeErr.Line)
}

func TestScanInvalidUTF8ReportsLineNumber(t *testing.T) {
	scanner := NewRecordScanner(bytes.NewReader([]byte("ok\n\xff\xfe\n")))

	require.True(t, scanner.Scan())
	require.False(t, scanner.Scan())

	var decodeErr *DecodeError
	require.ErrorAs(t, scanner.Err(), &decodeErr)
	assert.Equal(t, 2, decodeErr.Line)
}

func TestScanNotRestartable(t *testing.T) {
	scanner := NewRecordScanner(bytes.NewReader([]byte("only\n")))

	require.True(t, scanner.Scan())
	require.False(t, scanner.Scan())
	assert.False(t, scanner.Scan())
	assert.NoError(t, scanner.Err())
}

func TestUnmetafyCompactsInPlace(t *testing.T) {
	buf := []byte{'a', metaMarker, 'I' ^ metaMask, 'b', metaMarker}
	out := unmetafy(buf)
	assert.Equal(t, []byte{'a', 'I', 'b', metaMarker}, out)
}
