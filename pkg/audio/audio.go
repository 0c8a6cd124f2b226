/*
Prism Core
Copyright (c) 2026 The Zaparoo Project Contributors.
SPDX-License-Identifier: GPL-3.0-or-later

This file is part of Prism Core.

Prism Core is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Prism Core is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Prism Core.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package audio plays short sound files through the default output device.
package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/ZaparooProject/prism-core/pkg/helpers/syncutil"
	"github.com/gen2brain/malgo"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	outputSampleRate = beep.SampleRate(48000)
	resampleQuality  = 4
)

var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Player plays a sound file without blocking the caller.
type Player interface {
	Play(path string) error
	Stop()
}

// DevicePlayer decodes WAV, MP3, OGG Vorbis and FLAC files with beep and
// plays them through malgo. Starting a sound cancels the one playing.
type DevicePlayer struct {
	fs      afero.Fs
	cancel  context.CancelFunc
	cache   map[string][]byte
	gen     uint64
	cacheMu syncutil.RWMutex
	playMu  syncutil.Mutex
}

func NewDevicePlayer(fs afero.Fs) *DevicePlayer {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &DevicePlayer{fs: fs, cache: make(map[string][]byte)}
}

func (p *DevicePlayer) read(path string) ([]byte, error) {
	p.cacheMu.RLock()
	data, ok := p.cache[path]
	p.cacheMu.RUnlock()
	if ok {
		return data, nil
	}

	data, err := afero.ReadFile(p.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sound file: %w", err)
	}

	p.cacheMu.Lock()
	p.cache[path] = data
	p.cacheMu.Unlock()
	return data, nil
}

// ClearCache drops cached file contents so edited sounds are re-read.
func (p *DevicePlayer) ClearCache() {
	p.cacheMu.Lock()
	defer p.cacheMu.Unlock()
	p.cache = make(map[string][]byte)
}

// Decode picks a decoder from the file extension.
func Decode(path string, data []byte) (beep.StreamSeekCloser, beep.Format, error) {
	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
		err      error
	)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav":
		streamer, format, err = wav.Decode(bytes.NewReader(data))
	case ".mp3":
		streamer, format, err = mp3.Decode(io.NopCloser(bytes.NewReader(data)))
	case ".ogg":
		streamer, format, err = vorbis.Decode(io.NopCloser(bytes.NewReader(data)))
	case ".flac":
		streamer, format, err = flac.Decode(bytes.NewReader(data))
	default:
		return nil, beep.Format{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return streamer, format, nil
}

func (p *DevicePlayer) Play(path string) error {
	data, err := p.read(path)
	if err != nil {
		return err
	}
	streamer, format, err := Decode(path, data)
	if err != nil {
		return err
	}
	resampled := beep.Resample(resampleQuality, format.SampleRate, outputSampleRate, streamer)

	p.playMu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.gen++
	gen := p.gen
	p.playMu.Unlock()

	go func() {
		defer func() {
			if err := streamer.Close(); err != nil {
				log.Debug().Err(err).Msg("audio: error closing streamer")
			}
			p.playMu.Lock()
			if p.gen == gen {
				p.cancel = nil
			}
			p.playMu.Unlock()
			cancel()
		}()

		if err := playOnDevice(ctx, resampled); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn().Err(err).Str("path", path).Msg("audio: playback failed")
		}
	}()
	return nil
}

// Stop cancels the sound that is playing, if any.
func (p *DevicePlayer) Stop() {
	p.playMu.Lock()
	defer p.playMu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

// playOnDevice blocks until streamer is drained or ctx is cancelled.
func playOnDevice(ctx context.Context, streamer beep.Streamer) error {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize audio context: %w", err)
	}
	defer func() {
		_ = mctx.Uninit()
		mctx.Free()
	}()

	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = malgo.FormatF32
	cfg.Playback.Channels = 2
	cfg.SampleRate = uint32(outputSampleRate)
	cfg.Alsa.NoMMap = 1

	var (
		mu       syncutil.Mutex
		finished bool
		buf      [][2]float64
	)
	done := make(chan struct{})
	finish := func() {
		if !finished {
			finished = true
			close(done)
		}
	}

	onSamples := func(out, _ []byte, frames uint32) {
		mu.Lock()
		defer mu.Unlock()
		if finished {
			return
		}
		if ctx.Err() != nil {
			finish()
			return
		}

		if len(buf) < int(frames) {
			buf = make([][2]float64, frames)
		}
		n, ok := streamer.Stream(buf[:frames])
		if !ok || n == 0 {
			finish()
			return
		}

		// interleaved little-endian f32, left then right
		off := 0
		for i := range n {
			binary.LittleEndian.PutUint32(out[off:], math.Float32bits(float32(buf[i][0])))
			binary.LittleEndian.PutUint32(out[off+4:], math.Float32bits(float32(buf[i][1])))
			off += 8
		}
		clear(out[off:])
	}

	device, err := malgo.InitDevice(mctx.Context, cfg, malgo.DeviceCallbacks{Data: onSamples})
	if err != nil {
		return fmt.Errorf("failed to open audio device: %w", err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return fmt.Errorf("failed to start audio device: %w", err)
	}

	select {
	case <-done:
	case <-ctx.Done():
		mu.Lock()
		finish()
		mu.Unlock()
	}

	if err := device.Stop(); err != nil {
		log.Debug().Err(err).Msg("audio: error stopping device")
	}
	return ctx.Err()
}
