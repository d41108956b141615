package extract

// FieldSpec names one extracted field and the ordered alternatives used to find it.
type FieldSpec struct {
	Column   Column
	Patterns []Pattern
}

// Schema describes how one section kind is located, split and turned into records.
type Schema struct {
	Kind   SectionKind
	Marker string
	Split  Splitter
	Fields []FieldSpec
}

// Columns returns the schema's columns in field order.
func (s *Schema) Columns() []Column {
	cols := make([]Column, len(s.Fields))
	for i, f := range s.Fields {
		cols[i] = f.Column
	}
	return cols
}

// Column keys of the configuration schema.
const (
	KeyIPv4Address = "ipv4_address"
	KeyVLANID      = "vlan_id"
	KeyVPNInstance = "vpn_instance"
	KeyDescription = "description"
)

// Column keys of the status schema.
const (
	KeyAdminState = "admin_state"
	KeyLinkState  = "link_state"
	KeySpeed      = "speed"
	KeyModuleType = "module_type"
	KeyRxPower    = "rx_power"
	KeyTxPower    = "tx_power"
	KeyWavelength = "wavelength"
	KeyDistance   = "distance"
	KeyCRC        = "crc"
)

// ConfigurationSchema returns the built-in schema for current-configuration sections.
func ConfigurationSchema() *Schema {
	return &Schema{
		Kind:   SectionConfiguration,
		Marker: DefaultConfigurationMarker,
		Split:  SplitConfigurationChunks,
		Fields: []FieldSpec{
			{
				Column:   Column{Key: KeyName, Header: "接口名"},
				Patterns: []Pattern{MustPattern(`(?m)^interface (\S+)`)},
			},
			{
				Column:   Column{Key: KeyIPv4Address, Header: "接口IPv4地址"},
				Patterns: []Pattern{MustPattern(`(?m)^\s*ip address ([\S ]+)`)},
			},
			{
				Column: Column{Key: KeyVLANID, Header: "接口VLAN ID"},
				Patterns: []Pattern{
					MustPattern(`(?m)^\s*port default ([\S ]+)`),
					MustPattern(`(?m)^\s*vlan-type dot1q ([\S ]+)`),
					MustPattern(`(?m)^\s*port trunk allow-pass ([\S ]+)`),
				},
			},
			{
				Column:   Column{Key: KeyVPNInstance, Header: "接口VPN"},
				Patterns: []Pattern{MustPattern(`(?m)^\s*ip binding vpn-instance ([\S ]+)`)},
			},
			{
				Column:   Column{Key: KeyDescription, Header: "接口描述"},
				Patterns: []Pattern{MustPattern(`(?m)^\s*description ([\S ]+)`)},
			},
		},
	}
}

// StatusSchema returns the built-in schema for display interface sections.
// RE2 has no lookahead, so "(\S+?)(?=,)" is written "(\S+?)," and the capture
// group carries the value.
func StatusSchema() *Schema {
	return &Schema{
		Kind:   SectionStatus,
		Marker: DefaultStatusMarker,
		Split:  SplitStatusChunks,
		Fields: []FieldSpec{
			{
				Column:   Column{Key: KeyName, Header: "接口名"},
				Patterns: []Pattern{MustPattern(`^(\S+)`)},
			},
			{
				Column:   Column{Key: KeyAdminState, Header: "接口当前状态"},
				Patterns: []Pattern{MustPattern(`(?m)^\S{1,40} current state : ([\S ]+)`)},
			},
			{
				Column:   Column{Key: KeyLinkState, Header: "接口链路状态"},
				Patterns: []Pattern{MustPattern(`Line protocol current state : ([\S ]+)`)},
			},
			{
				Column: Column{Key: KeySpeed, Header: "接口速率"},
				Patterns: []Pattern{
					MustPattern(`Port BW: (\S+?),`),
					MustPattern(`Current BW: ?(\S+?),`),
				},
			},
			{
				Column: Column{Key: KeyModuleType, Header: "接口模块类型"},
				Patterns: []Pattern{
					MustPattern(`Transceiver Mode: (\S+)`),
					MustPattern(`Media type: (\S+)`),
				},
			},
			{
				Column:   Column{Key: KeyRxPower, Header: "接口收光"},
				Patterns: []Pattern{MustPattern(`Rx Power: (\S+)`)},
			},
			{
				Column:   Column{Key: KeyTxPower, Header: "接口发光"},
				Patterns: []Pattern{MustPattern(`Tx Power: (\S+)`)},
			},
			{
				Column:   Column{Key: KeyWavelength, Header: "模块波长"},
				Patterns: []Pattern{MustPattern(`WaveLength: (\S+),`)},
			},
			{
				Column:   Column{Key: KeyDistance, Header: "传输距离"},
				Patterns: []Pattern{MustPattern(`Transmission Distance: (\S+)`)},
			},
			{
				Column:   Column{Key: KeyCRC, Header: "接口当前CRC"},
				Patterns: []Pattern{MustPattern(`CRC: (\S+)`)},
			},
		},
	}
}
