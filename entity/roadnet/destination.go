package roadnet

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/Lemirq/qhacks-sub000/entity"
)

// Destination 命名目的地
// 功能：车辆行程终点的静态配置，带加权抽样权重
type Destination struct {
	id       int64
	name     string
	position orb.Point
	category entity.DestinationCategory
	capacity int32
	weight   float64 // 严格为正
}

func newDestination(id int64, name string, position orb.Point, category entity.DestinationCategory, capacity int32, weight float64) *Destination {
	if weight <= 0 {
		weight = 1
	}
	return &Destination{
		id:       id,
		name:     name,
		position: position,
		category: category,
		capacity: capacity,
		weight:   weight,
	}
}

// ID 获取目的地ID
func (d *Destination) ID() int64 {
	return d.id
}

// Name 获取名称
func (d *Destination) Name() string {
	return d.name
}

// Position 获取位置
func (d *Destination) Position() orb.Point {
	return d.position
}

// Category 获取分类
func (d *Destination) Category() entity.DestinationCategory {
	return d.category
}

// Capacity 获取容量（0表示不限）
func (d *Destination) Capacity() int32 {
	return d.capacity
}

// Weight 获取抽样权重
func (d *Destination) Weight() float64 {
	return d.weight
}

func (d *Destination) String() string {
	return fmt.Sprintf("Destination{id=%d, name=%s, w=%.1f}", d.id, d.name, d.weight)
}

// parseCategory 解析目的地分类字符串
func parseCategory(s string) entity.DestinationCategory {
	switch s {
	case "parking_lot":
		return entity.DestinationParkingLot
	case "exit":
		return entity.DestinationExit
	default:
		return entity.DestinationBuilding
	}
}
