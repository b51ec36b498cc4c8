package audio

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gordonklaus/portaudio"
)

// Device describes an audio device for listing and diagnostics.
type Device struct {
	Name            string
	HostAPI         string
	MaxInput        int
	MaxOutput       int
	DefaultSampleHz float64
	IsDefaultInput  bool
}

// ListDevices returns every device across host APIs, sorted by host then
// name.
func ListDevices() ([]Device, error) {
	hosts, err := portaudio.HostApis()
	if err != nil {
		return nil, fmt.Errorf("host apis: %w", err)
	}

	defaultIndex := -1
	if def, err := portaudio.DefaultInputDevice(); err == nil && def != nil {
		defaultIndex = def.Index
	}

	var devices []Device
	for _, host := range hosts {
		for _, d := range host.Devices {
			devices = append(devices, Device{
				Name:            d.Name,
				HostAPI:         host.Name,
				MaxInput:        d.MaxInputChannels,
				MaxOutput:       d.MaxOutputChannels,
				DefaultSampleHz: d.DefaultSampleRate,
				IsDefaultInput:  d.Index == defaultIndex,
			})
		}
	}

	sort.Slice(devices, func(i, j int) bool {
		if devices[i].HostAPI == devices[j].HostAPI {
			return devices[i].Name < devices[j].Name
		}
		return devices[i].HostAPI < devices[j].HostAPI
	})
	return devices, nil
}

// selectInputDevice resolves the capture device. A non-empty name is matched
// as a substring; otherwise the defaults are tried before falling back to
// scoring every input device.
func selectInputDevice(name string) (*portaudio.DeviceInfo, error) {
	if name != "" {
		return matchDevice(name)
	}

	if dev, err := portaudio.DefaultInputDevice(); err == nil && dev != nil && dev.MaxInputChannels > 0 {
		return dev, nil
	}
	if host, err := portaudio.DefaultHostApi(); err == nil && host != nil {
		if dev := host.DefaultInputDevice; dev != nil && dev.MaxInputChannels > 0 {
			return dev, nil
		}
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list audio devices: %w", err)
	}
	if dev := scoreDevices(devices); dev != nil {
		return dev, nil
	}
	return nil, fmt.Errorf("no suitable audio input device found")
}

func matchDevice(name string) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list audio devices: %w", err)
	}
	name = strings.ToLower(name)
	for _, d := range devices {
		if d.MaxInputChannels > 0 && strings.Contains(strings.ToLower(d.Name), name) {
			return d, nil
		}
	}
	return nil, fmt.Errorf("audio device %q not found", name)
}

// scoreDevices prefers system defaults and loopback-style monitors, which is
// what a visualizer usually wants to listen to.
func scoreDevices(devices []*portaudio.DeviceInfo) *portaudio.DeviceInfo {
	loopbackHints := []string{"monitor", "loopback", "mix", "stereo mix", "what u hear"}

	defaultIndex := -1
	if def, err := portaudio.DefaultInputDevice(); err == nil && def != nil {
		defaultIndex = def.Index
	}

	var best *portaudio.DeviceInfo
	bestScore := 0
	for _, d := range devices {
		if d == nil || d.MaxInputChannels <= 0 {
			continue
		}
		score := d.MaxInputChannels
		if d.Index == defaultIndex {
			score += 50
		}
		lower := strings.ToLower(d.Name)
		for _, hint := range loopbackHints {
			if strings.Contains(lower, hint) {
				score += 20
				break
			}
		}
		if strings.Contains(lower, "default") {
			score += 10
		}
		if best == nil || score > bestScore ||
			(score == bestScore && strings.ToLower(d.Name) < strings.ToLower(best.Name)) {
			best = d
			bestScore = score
		}
	}
	return best
}
