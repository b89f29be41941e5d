package entity

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/Lemirq/qhacks-sub000/utils/geomath"
)

// NodeKind 路网节点分类
type NodeKind int

const (
	NodeKindSpawn        NodeKind = iota // 生成点
	NodeKindIntersection                 // 交叉口（连接边数>=3时在构图完成后重判定）
	NodeKindDestination                  // 目的地
	NodeKindParking                      // 停车场入口
)

func (k NodeKind) String() string {
	switch k {
	case NodeKindSpawn:
		return "spawn"
	case NodeKindIntersection:
		return "intersection"
	case NodeKindDestination:
		return "destination"
	case NodeKindParking:
		return "parking"
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// DestinationCategory 目的地分类
type DestinationCategory int

const (
	DestinationBuilding   DestinationCategory = iota // 建筑
	DestinationParkingLot                            // 停车场
	DestinationExit                                  // 路网出口
)

func (c DestinationCategory) String() string {
	switch c {
	case DestinationBuilding:
		return "building"
	case DestinationParkingLot:
		return "parking_lot"
	case DestinationExit:
		return "exit"
	}
	return fmt.Sprintf("DestinationCategory(%d)", int(c))
}

// LightState 信号灯相位
type LightState int

const (
	LightStateRed    LightState = iota // 红灯
	LightStateYellow                   // 黄灯
	LightStateGreen                    // 绿灯
)

func (s LightState) String() string {
	switch s {
	case LightStateRed:
		return "red"
	case LightStateYellow:
		return "yellow"
	case LightStateGreen:
		return "green"
	}
	return fmt.Sprintf("LightState(%d)", int(s))
}

// VehicleClass 车辆类型（封闭枚举）
// 说明：物理参数表按类型静态取值，不使用运行时字符串分发
type VehicleClass int

const (
	VehicleClassSedan   VehicleClass = iota // 轿车
	VehicleClassSUV                         // SUV
	VehicleClassTruck                       // 卡车
	VehicleClassCompact                     // 小型车
	numVehicleClasses
)

func (c VehicleClass) String() string {
	switch c {
	case VehicleClassSedan:
		return "sedan"
	case VehicleClassSUV:
		return "suv"
	case VehicleClassTruck:
		return "truck"
	case VehicleClassCompact:
		return "compact"
	}
	return fmt.Sprintf("VehicleClass(%d)", int(c))
}

// PhysicsProfile 车辆物理参数
// 功能：按车辆类型给出的常量物理参数集
type PhysicsProfile struct {
	MaxAcceleration float64 // 最大加速度（米/秒²）
	MaxBraking      float64 // 最大制动加速度（米/秒²，负值）
	BaseMaxSpeed    float64 // 基准最高速度（千米/时），生成时按±25%抖动
	Headway         float64 // 安全车头时距（秒）
	Length          float64 // 车长（米）
}

// 物理参数表，按VehicleClass索引
var physicsProfiles = [numVehicleClasses]PhysicsProfile{
	VehicleClassSedan:   {MaxAcceleration: 2.8, MaxBraking: -6.0, BaseMaxSpeed: 60, Headway: 2, Length: 4.5},
	VehicleClassSUV:     {MaxAcceleration: 2.4, MaxBraking: -5.5, BaseMaxSpeed: 58, Headway: 2, Length: 4.9},
	VehicleClassTruck:   {MaxAcceleration: 1.6, MaxBraking: -4.5, BaseMaxSpeed: 50, Headway: 2.5, Length: 8.5},
	VehicleClassCompact: {MaxAcceleration: 3.0, MaxBraking: -6.5, BaseMaxSpeed: 62, Headway: 1.8, Length: 3.8},
}

// Profile 获取车辆类型对应的物理参数
func (c VehicleClass) Profile() PhysicsProfile {
	return physicsProfiles[c]
}

// BehaviorState 车辆行为状态
type BehaviorState int

const (
	BehaviorCruising           BehaviorState = iota // 巡航
	BehaviorFollowing                               // 跟车
	BehaviorApproachingStop                         // 接近停车标志
	BehaviorStoppedAtSign                           // 停在停车标志前
	BehaviorYielding                                // 让行
	BehaviorApproachingSignal                       // 接近信号灯
	BehaviorStoppedAtSignal                         // 停在信号灯前
	BehaviorEmergencyBraking                        // 紧急制动
)

func (s BehaviorState) String() string {
	switch s {
	case BehaviorCruising:
		return "cruising"
	case BehaviorFollowing:
		return "following"
	case BehaviorApproachingStop:
		return "approaching_stop_sign"
	case BehaviorStoppedAtSign:
		return "stopped_at_sign"
	case BehaviorYielding:
		return "yielding"
	case BehaviorApproachingSignal:
		return "approaching_signal"
	case BehaviorStoppedAtSignal:
		return "stopped_at_signal"
	case BehaviorEmergencyBraking:
		return "emergency_braking"
	}
	return fmt.Sprintf("BehaviorState(%d)", int(s))
}

// Route 规划好的行驶路线
// 功能：从起点到目的地的有序节点/边序列与展平后的航点折线
// 说明：Edges[i]连接NodeIDs[i]与NodeIDs[i+1]；起终点吸附到同一节点时
// 退化为两点直连路线，节点与边列表为空，调用方必须按"直连而非循图"处理
type Route struct {
	NodeIDs       []int64        // 有序节点ID序列
	Edges         []IRoadEdge    // 有序边序列
	Distance      float64        // 累计距离（米）
	EstimatedTime float64        // 累计估计时间（秒）
	Waypoints     orb.LineString // 展平后的航点折线（各边几何拼接去重）
}

// Direct 是否为两点直连的退化路线
func (r *Route) Direct() bool {
	return len(r.Edges) == 0
}

// EdgeIndex 查找边在路线中的下标
// 返回：下标，不在路线中时返回-1
func (r *Route) EdgeIndex(edgeID int64) int {
	for i, e := range r.Edges {
		if e.ID() == edgeID {
			return i
		}
	}
	return -1
}

// NextEdge 获取路线中指定边的下一条边
// 参数：currentEdgeID-当前边ID
// 返回：下一条边，当前边是最后一条边或不在路线中时返回nil
func (r *Route) NextEdge(currentEdgeID int64) IRoadEdge {
	i := r.EdgeIndex(currentEdgeID)
	if i < 0 || i+1 >= len(r.Edges) {
		return nil
	}
	return r.Edges[i+1]
}

// UpcomingTurn 获取前方转向角
// 功能：计算当前边最后一段与下一条边第一段之间的带符号方位角差，
// 用于转向灯状态判定
// 参数：currentEdgeID-当前边ID
// 返回：转向角（度，(-180,180]，左负右正），无下一条边时返回0
func (r *Route) UpcomingTurn(currentEdgeID int64) float64 {
	i := r.EdgeIndex(currentEdgeID)
	if i < 0 || i+1 >= len(r.Edges) {
		return 0
	}
	cur := r.Edges[i].Geometry()
	next := r.Edges[i+1].Geometry()
	if len(cur) < 2 || len(next) < 2 {
		return 0
	}
	outBearing := geomath.Bearing(cur[len(cur)-2], cur[len(cur)-1])
	inBearing := geomath.Bearing(next[0], next[1])
	return geomath.NormalizeDelta(inBearing - outBearing)
}

// VehicleSnapshot 车辆对外快照
// 功能：每步向渲染层暴露的车辆状态
type VehicleSnapshot struct {
	ID        int32          // 车辆ID
	Class     VehicleClass   // 车辆类型
	Position  orb.Point      // 当前位置
	Bearing   float64        // 当前朝向（度）
	Speed     float64        // 当前速度（千米/时）
	State     BehaviorState  // 当前行为状态
	Waypoints orb.LineString // 路线航点（渲染路径用）
}

// StopSign 停车标志（静态基础设施）
type StopSign struct {
	ID       int64     // 标志ID
	Position orb.Point // 位置
}

// SignalState 信号灯的当前对外状态
type SignalState struct {
	ID       int64      // 信号灯ID
	Position orb.Point  // 位置
	Phase    LightState // 当前相位
}
