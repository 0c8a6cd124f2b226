// Prism Core
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Prism Core.
//
// Prism Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Prism Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Prism Core.  If not, see <http://www.gnu.org/licenses/>.

package audio

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// silentWAV is a PCM header with an empty data chunk.
func silentWAV() []byte {
	return []byte{
		'R', 'I', 'F', 'F',
		36, 0, 0, 0,
		'W', 'A', 'V', 'E',
		'f', 'm', 't', ' ',
		16, 0, 0, 0,
		1, 0, // PCM
		1, 0, // mono
		0x44, 0xAC, 0, 0, // 44100 Hz
		0x88, 0x58, 0x01, 0,
		2, 0,
		16, 0,
		'd', 'a', 't', 'a',
		0, 0, 0, 0,
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		path     string
		data     []byte
		wantErr  error
		wantRate int
	}{
		{name: "wav", path: "/sounds/done.wav", data: silentWAV(), wantRate: 44100},
		{name: "upper case extension", path: "/sounds/DONE.WAV", data: silentWAV(), wantRate: 44100},
		{name: "unsupported", path: "/sounds/done.aiff", data: silentWAV(), wantErr: ErrUnsupportedFormat},
		{name: "no extension", path: "/sounds/done", data: silentWAV(), wantErr: ErrUnsupportedFormat},
		{name: "garbage", path: "/sounds/done.wav", data: []byte("not a wav file")},
		{name: "empty", path: "/sounds/done.flac", data: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			streamer, format, err := Decode(tt.path, tt.data)
			if tt.wantRate == 0 {
				require.Error(t, err)
				if tt.wantErr != nil {
					require.ErrorIs(t, err, tt.wantErr)
				}
				return
			}

			require.NoError(t, err)
			defer func() { assert.NoError(t, streamer.Close()) }()
			assert.Equal(t, tt.wantRate, int(format.SampleRate))
			assert.Equal(t, 1, format.NumChannels)
		})
	}
}

func TestDevicePlayer_PlayErrors(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/sounds/done.txt", []byte("hi"), 0o600))
	p := NewDevicePlayer(fs)

	require.Error(t, p.Play("/sounds/missing.wav"))
	require.ErrorIs(t, p.Play("/sounds/done.txt"), ErrUnsupportedFormat)

	// Stop with nothing playing is a no-op.
	p.Stop()
}

func TestDevicePlayer_Cache(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/sounds/a.wav", []byte("one"), 0o600))
	p := NewDevicePlayer(fs)

	data, err := p.read("/sounds/a.wav")
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))

	require.NoError(t, afero.WriteFile(fs, "/sounds/a.wav", []byte("two"), 0o600))
	data, err = p.read("/sounds/a.wav")
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))

	p.ClearCache()
	data, err = p.read("/sounds/a.wav")
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}
