package extract

import "testing"

func TestBuildRecord_Configuration(t *testing.T) {
	tests := []struct {
		name  string
		chunk string
		want  Record
	}{
		{
			name: "routed port",
			chunk: "interface GE1/0/1\n" +
				" undo portswitch\n" +
				" description to-core-02 ge1/0/1\n" +
				" ip binding vpn-instance MGMT\n" +
				" ip address 10.0.0.1 255.255.255.252\n" +
				"#",
			want: Record{
				KeyName:        "GE1/0/1",
				KeyIPv4Address: "10.0.0.1 255.255.255.252",
				KeyVLANID:      NotCaptured,
				KeyVPNInstance: "MGMT",
				KeyDescription: "to-core-02 ge1/0/1",
			},
		},
		{
			name: "access port",
			chunk: "interface GE1/0/2\n" +
				" port link-type access\n" +
				" port default vlan 100\n" +
				"#",
			want: Record{
				KeyName:        "GE1/0/2",
				KeyIPv4Address: NotCaptured,
				KeyVLANID:      "vlan 100",
				KeyVPNInstance: NotCaptured,
				KeyDescription: NotCaptured,
			},
		},
		{
			name: "dot1q subinterface",
			chunk: "interface GE1/0/3.200\n" +
				" vlan-type dot1q 200\n" +
				" ip address 172.16.0.1 255.255.255.0\n" +
				"#",
			want: Record{
				KeyName:        "GE1/0/3.200",
				KeyIPv4Address: "172.16.0.1 255.255.255.0",
				KeyVLANID:      "200",
				KeyVPNInstance: NotCaptured,
				KeyDescription: NotCaptured,
			},
		},
		{
			name: "trunk port prefers port default over allow-pass",
			chunk: "interface Eth-Trunk1\n" +
				" port trunk allow-pass vlan 10 20\n" +
				" port default vlan 1\n" +
				"#",
			want: Record{
				KeyName:        "Eth-Trunk1",
				KeyIPv4Address: NotCaptured,
				KeyVLANID:      "vlan 1",
				KeyVPNInstance: NotCaptured,
				KeyDescription: NotCaptured,
			},
		},
		{
			name: "trunk port with allow-pass only",
			chunk: "interface Eth-Trunk2\n" +
				" port link-type trunk\n" +
				" port trunk allow-pass vlan 10 20\n" +
				"#",
			want: Record{
				KeyName:        "Eth-Trunk2",
				KeyIPv4Address: NotCaptured,
				KeyVLANID:      "vlan 10 20",
				KeyVPNInstance: NotCaptured,
				KeyDescription: NotCaptured,
			},
		},
	}

	schema := ConfigurationSchema()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildRecord(schema, tt.chunk, NotCaptured)
			assertRecord(t, got, tt.want)
		})
	}
}

func TestBuildRecord_Status(t *testing.T) {
	chunk := "10GE1/0/1 current state : UP (ifindex: 13)\n" +
		"Line protocol current state : UP\n" +
		"Description: to-agg-01\n" +
		"Route Port,The Maximum Transmit Unit is 1500\n" +
		"Port Mode: COMMON FIBER, Port Split/Aggregate: -\n" +
		"Speed: 10000, Loopback: NONE\n" +
		"Duplex: FULL, Negotiation: DISABLE\n" +
		"Input Flow-control: DISABLE, Output Flow-control: DISABLE\n" +
		"Mdi: -, Fec: NONE\n" +
		"Last physical up time   : 2025-10-01 08:00:00\n" +
		"Current system time: 2025-10-24 10:00:00\n" +
		"Statistics last cleared:never\n" +
		"    Last 300 seconds input rate: 1000 bits/sec, 1 packets/sec\n" +
		"    Input: 100 packets,1000 bytes\n" +
		"    CRC: 3, Giants: 0, Jabbers: 0\n" +
		"Transceiver Mode: SingleMode\n" +
		"WaveLength: 1310nm, Transmission Distance: 10km\n" +
		"Rx Power: -3.11dBm, Warning range: [-14.401, 0.499]dBm\n" +
		"Tx Power: -2.20dBm, Warning range: [-8.200, 0.499]dBm\n" +
		"Port BW: 10G, Transceiver max BW: 10G, Transceiver Mode: SingleMode"

	want := Record{
		KeyName:       "10GE1/0/1",
		KeyAdminState: "UP (ifindex: 13)",
		KeyLinkState:  "UP",
		KeySpeed:      "10G",
		KeyModuleType: "SingleMode",
		KeyRxPower:    "-3.11dBm,",
		KeyTxPower:    "-2.20dBm,",
		KeyWavelength: "1310nm",
		KeyDistance:   "10km",
		KeyCRC:        "3,",
	}

	got := BuildRecord(StatusSchema(), chunk, NotCaptured)
	assertRecord(t, got, want)
}

func TestBuildRecord_StatusCopperPort(t *testing.T) {
	chunk := "GigabitEthernet0/0/1 current state : DOWN\n" +
		"Line protocol current state : DOWN\n" +
		"Current BW: 1000Mbps, Current BW Type: Auto\n" +
		"Media type: copper, loopback: none, maximal BW: 1G"

	want := Record{
		KeyName:       "GigabitEthernet0/0/1",
		KeyAdminState: "DOWN",
		KeyLinkState:  "DOWN",
		KeySpeed:      "1000Mbps",
		KeyModuleType: "copper,",
		KeyRxPower:    NotCaptured,
		KeyTxPower:    NotCaptured,
		KeyWavelength: NotCaptured,
		KeyDistance:   NotCaptured,
		KeyCRC:        NotCaptured,
	}

	got := BuildRecord(StatusSchema(), chunk, NotCaptured)
	assertRecord(t, got, want)
}

func TestBuildRecord_CustomSentinel(t *testing.T) {
	got := BuildRecord(ConfigurationSchema(), "interface NULL0\n#", "N/A")

	if got[KeyName] != "NULL0" {
		t.Errorf("name = %q, want %q", got[KeyName], "NULL0")
	}
	if got[KeyIPv4Address] != "N/A" {
		t.Errorf("ipv4_address = %q, want custom sentinel", got[KeyIPv4Address])
	}
}

func TestBuildRecords_OneRecordPerChunk(t *testing.T) {
	chunks := []string{"interface A\n#", "interface A\n#", "interface B\n#"}

	records := BuildRecords(ConfigurationSchema(), chunks, NotCaptured)
	if len(records) != 3 {
		t.Fatalf("BuildRecords() = %d records, want 3", len(records))
	}
	if records[0].Name() != "A" || records[1].Name() != "A" || records[2].Name() != "B" {
		t.Errorf("names = %q, %q, %q", records[0].Name(), records[1].Name(), records[2].Name())
	}
}

func TestBuildDataset_MissingSectionKeepsSchema(t *testing.T) {
	transcript := "<r1>display version\nVRP software\n<r1>"

	tests := []struct {
		schema   *Schema
		wantCols int
	}{
		{ConfigurationSchema(), 5},
		{StatusSchema(), 10},
	}

	for _, tt := range tests {
		t.Run(string(tt.schema.Kind), func(t *testing.T) {
			ds := BuildDataset(tt.schema, transcript, NotCaptured)
			if ds.Found {
				t.Error("Found = true, want false")
			}
			if len(ds.Records) != 0 {
				t.Errorf("Records = %d, want 0", len(ds.Records))
			}
			if ds.Records == nil {
				t.Error("Records should be an empty slice, not nil")
			}
			if len(ds.Columns) != tt.wantCols {
				t.Errorf("Columns = %d, want %d", len(ds.Columns), tt.wantCols)
			}
			if ds.Columns[0].Key != KeyName {
				t.Errorf("first column = %q, want %q", ds.Columns[0].Key, KeyName)
			}
		})
	}
}

func TestSchemaColumnOrder(t *testing.T) {
	wantConfig := []string{KeyName, KeyIPv4Address, KeyVLANID, KeyVPNInstance, KeyDescription}
	wantStatus := []string{KeyName, KeyAdminState, KeyLinkState, KeySpeed, KeyModuleType,
		KeyRxPower, KeyTxPower, KeyWavelength, KeyDistance, KeyCRC}

	assertKeys(t, ConfigurationSchema().Columns(), wantConfig)
	assertKeys(t, StatusSchema().Columns(), wantStatus)
}

func assertRecord(t *testing.T, got, want Record) {
	t.Helper()
	if len(got) != len(want) {
		t.Errorf("record has %d fields, want %d: %v", len(got), len(want), got)
	}
	for k, w := range want {
		if g, ok := got[k]; !ok {
			t.Errorf("field %s missing", k)
		} else if g != w {
			t.Errorf("field %s = %q, want %q", k, g, w)
		}
	}
}

func assertKeys(t *testing.T, cols []Column, want []string) {
	t.Helper()
	if len(cols) != len(want) {
		t.Fatalf("got %d columns, want %d", len(cols), len(want))
	}
	for i, c := range cols {
		if c.Key != want[i] {
			t.Errorf("column[%d] = %q, want %q", i, c.Key, want[i])
		}
		if c.Header == "" {
			t.Errorf("column[%d] (%s) has no header", i, c.Key)
		}
	}
}
