package message

import "testing"

func TestParseZoneProperties(t *testing.T) {
	data := []byte{byte(ObjectZone), 0x00, 0x03,
		0x01, 0x80, // status, loop
		0x02, 0x01, // zone type, area
		0x00, // options
	}
	data = append(data, []byte("FRONT DOOR\x00\x00\x00\x00\x00")...)

	msg, err := Parse(Envelope(TypeObjectProperties, data))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	props, ok := msg.(*ObjectProperties)
	if !ok {
		t.Fatalf("Parse() = %T", msg)
	}
	if props.Number != 3 || props.Name != "FRONT DOOR" || props.Kind != 2 || props.Area != 1 {
		t.Errorf("props = %+v", props)
	}
	if props.Status != (ZoneStatus{Status: 0x01, Loop: 0x80}) {
		t.Errorf("status = %v", props.Status)
	}
}

func TestObjectPropertiesEncodeDecode(t *testing.T) {
	tests := []ObjectProperties{
		{Object: ObjectZone, Number: 12, Name: "GARAGE", Status: ZoneStatus{Status: 0x10, Loop: 0xFD}, Kind: 1, Area: 2},
		{Object: ObjectUnit, Number: 300, Name: "PORCH LIGHT", Status: UnitStatus{State: 150, Time: 90}, Kind: 4, Area: 1},
		{Object: ObjectArea, Number: 1, Name: "HOUSE", Status: AreaStatus{RawMode: 3}, Enabled: true},
		{Object: ObjectThermostat, Number: 1, Name: "DOWNSTAIRS", Status: ThermostatStatus{Status: 1, Temperature: 120, HeatSetpoint: 110, CoolSetpoint: 130, Mode: ThermostatHeat, Hold: HoldOn}, Kind: 2},
		{Object: ObjectButton, Number: 5, Name: "GOOD NIGHT"},
		{Object: ObjectAccessLock, Number: 2, Name: "BACK GATE"},
	}

	for _, want := range tests {
		t.Run(want.Name, func(t *testing.T) {
			msg, err := Parse(EncodeObjectProperties(&want))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			got := msg.(*ObjectProperties)
			if *got != want {
				t.Errorf("got %+v\nwant %+v", *got, want)
			}
		})
	}
}
