package proto

import "fmt"

// MasterInfo is the data of a master read.
type MasterInfo struct {
	Address struct {
		Hostname   string `json:"hostname"`
		PortAscend int    `json:"port_ascend"`
	} `json:"address"`
}

// DecodeMaster extracts the master's hostname and control port.
func DecodeMaster(env Envelope) (hostname string, port int, err error) {
	var info MasterInfo
	if err := env.DecodeData(&info); err != nil {
		return "", 0, err
	}
	if info.Address.Hostname == "" {
		return "", 0, fmt.Errorf("%w: master response has no address.hostname", ErrMalformedResponse)
	}
	if info.Address.PortAscend == 0 {
		return "", 0, fmt.Errorf("%w: master response has no address.port_ascend", ErrMalformedResponse)
	}
	return info.Address.Hostname, info.Address.PortAscend, nil
}

type TargetDescriptor struct {
	Target     string `json:"target"`
	TargetType string `json:"targetType"`
}

// DecodeTargets parses the data of a targets read. Every descriptor must carry
// a targetType.
func DecodeTargets(env Envelope) ([]TargetDescriptor, error) {
	var raw []struct {
		Target     string  `json:"target"`
		TargetType *string `json:"targetType"`
	}
	if err := env.DecodeData(&raw); err != nil {
		return nil, err
	}

	descs := make([]TargetDescriptor, 0, len(raw))
	for i, d := range raw {
		if d.TargetType == nil {
			return nil, fmt.Errorf("%w: target %d has no targetType", ErrMalformedResponse, i)
		}
		descs = append(descs, TargetDescriptor{Target: d.Target, TargetType: *d.TargetType})
	}
	return descs, nil
}

// SelectRoomTarget returns the first room target, or "" if there is none.
// The master lists its speakers next to the room; the room is not
// guaranteed to come first.
func SelectRoomTarget(descs []TargetDescriptor) string {
	for _, d := range descs {
		if d.TargetType == TargetTypeRoom {
			return d.Target
		}
	}
	return ""
}

// NetworkState is the subset of a network read used by this client.
type NetworkState struct {
	State map[string]struct {
		Data struct {
			StreamingInfo *struct {
				IsPlaying *bool `json:"is_playing"`
			} `json:"streamingInfo"`
		} `json:"data"`
	} `json:"state"`
}

// IsPlaying reports data.state[target].data.streamingInfo.is_playing.
func IsPlaying(env Envelope, target string) (bool, error) {
	var ns NetworkState
	if err := env.DecodeData(&ns); err != nil {
		return false, err
	}
	st, ok := ns.State[target]
	if !ok {
		return false, fmt.Errorf("%w: no state for target %q", ErrMalformedResponse, target)
	}
	if st.Data.StreamingInfo == nil || st.Data.StreamingInfo.IsPlaying == nil {
		return false, fmt.Errorf("%w: target %q has no streamingInfo.is_playing", ErrMalformedResponse, target)
	}
	return *st.Data.StreamingInfo.IsPlaying, nil
}
