package media

import (
	"bytes"
	"io"

	"github.com/pion/opus/pkg/oggreader"
)

// opusGranuleRate is the granule position clock for OGG/Opus streams,
// fixed at 48kHz regardless of the encoded sample rate.
const opusGranuleRate = 48000

// VoiceInfo describes an OGG/Opus voice note.
type VoiceInfo struct {
	SampleRate int
	Channels   int
	Seconds    int
}

// ProbeVoiceNote reads the OGG header and pages of a voice note to recover
// its sample rate and playback duration. Voice-note UIs (WhatsApp PTT) want
// the duration up front. Returns zero values on anything unparsable; the
// caller treats the probe as best effort.
func ProbeVoiceNote(data []byte) VoiceInfo {
	ogg, header, err := oggreader.NewWith(bytes.NewReader(data))
	if err != nil {
		return VoiceInfo{}
	}

	info := VoiceInfo{
		SampleRate: int(header.SampleRate),
		Channels:   int(header.Channels),
	}

	var lastGranule uint64
	for {
		_, pageHeader, err := ogg.ParseNextPage()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		if pageHeader.GranulePosition > lastGranule {
			lastGranule = pageHeader.GranulePosition
		}
	}

	if lastGranule > 0 {
		info.Seconds = int(lastGranule / opusGranuleRate)
	}
	return info
}
