package encoding_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walweb/camisolas/internal/encoding"
)

func TestNewUTF8Reader(t *testing.T) {
	type testCase struct {
		name        string
		input       []byte
		want        string
		wantCharset encoding.Charset
	}

	tests := []testCase{
		{
			name:        "UTF8Passthrough",
			input:       []byte("team,color,size,quantity\nMéxico,Verde,M,3\nCôte d'Ivoire,Naranja,L,2\n"),
			want:        "team,color,size,quantity\nMéxico,Verde,M,3\nCôte d'Ivoire,Naranja,L,2\n",
			wantCharset: encoding.UTF8,
		},
		{
			name:        "UTF8BOMStripped",
			input:       append([]byte{0xEF, 0xBB, 0xBF}, []byte("team,size\nMéxico,S\n")...),
			want:        "team,size\nMéxico,S\n",
			wantCharset: encoding.UTF8,
		},
		{
			name: "Windows1252",
			// "Selección;Talla\n" with ó = 0xF3
			input: []byte{
				'S', 'e', 'l', 'e', 'c', 'c', 'i', 0xF3, 'n', ';',
				'T', 'a', 'l', 'l', 'a', '\n',
			},
			want: "Selección;Talla\n",
		},
		{
			name:        "UTF16LEWithBOM",
			input:       []byte{0xFF, 0xFE, 'M', 0x00, 0xE9, 0x00, 'x', 0x00, '\n', 0x00},
			want:        "Méx\n",
			wantCharset: encoding.UTF16LE,
		},
		{
			name:        "UTF16BEWithBOM",
			input:       []byte{0xFE, 0xFF, 0x00, 'M', 0x00, 0xE9, 0x00, 'x', 0x00, '\n'},
			want:        "Méx\n",
			wantCharset: encoding.UTF16BE,
		},
		{
			name:        "UTF16LEWithoutBOM",
			input:       []byte{'M', 0x00, 0xE9, 0x00, 'x', 0x00, ',', 0x00, 'S', 0x00, '\n', 0x00},
			want:        "Méx,S\n",
			wantCharset: encoding.UTF16LE,
		},
		{
			name:        "UTF16BEWithoutBOM",
			input:       []byte{0x00, 'M', 0x00, 0xE9, 0x00, 'x', 0x00, ',', 0x00, 'S', 0x00, '\n'},
			want:        "Méx,S\n",
			wantCharset: encoding.UTF16BE,
		},
		{
			name:        "Empty",
			input:       nil,
			want:        "",
			wantCharset: encoding.UTF8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, charset, err := encoding.NewUTF8Reader(bytes.NewReader(tt.input))
			require.NoError(t, err)

			got, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
			if tt.wantCharset != "" {
				assert.Equal(t, tt.wantCharset, charset)
			}
		})
	}
}

func TestNewUTF8Reader_MultibyteAcrossSniffWindow(t *testing.T) {
	// Pad so that "é" (2 bytes) straddles the 4096-byte sniff boundary.
	input := append(bytes.Repeat([]byte("a"), 4095), []byte("é,M,1\n")...)

	r, charset, err := encoding.NewUTF8Reader(bytes.NewReader(input))
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, string(input), string(got))
	assert.Equal(t, encoding.UTF8, charset)
}
