// Package snowflake hands out the time-ordered serial numbers printed on refunds.
package snowflake

import (
	"fmt"
	"time"

	"github.com/sony/sonyflake"
)

// Epoch is the start of the serial clock. Changing it breaks the ordering of existing serials.
var Epoch = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

// Generator is safe for concurrent use. Two generators must never share a machine id.
type Generator struct {
	node      *sonyflake.Sonyflake
	machineID uint16
}

func NewGenerator(machineId uint16) (*Generator, error) {
	sf, err := sonyflake.New(sonyflake.Settings{
		StartTime: Epoch,
		MachineID: func() (uint16, error) {
			return machineId, nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sonyflake not created: %w", err)
	}
	return &Generator{node: sf, machineID: machineId}, nil
}

// GetID returns the next serial.
func (g *Generator) GetID() (uint64, error) {
	id, err := g.node.NextID()
	if err != nil {
		return 0, fmt.Errorf("generate serial on machine %d: %w", g.machineID, err)
	}
	return id, nil
}

// Parts is a decoded serial.
type Parts struct {
	IssuedAt  time.Time
	Sequence  uint64
	MachineID uint16
}

// Decode splits a serial into the instant it was issued, its sequence and the issuing machine.
func Decode(id uint64) Parts {
	return Parts{
		IssuedAt:  Epoch.Add(sonyflake.ElapsedTime(id)),
		Sequence:  sonyflake.SequenceNumber(id),
		MachineID: uint16(sonyflake.MachineID(id)),
	}
}
