package domain

// Role 操作者角色
type Role string

const (
	RoleVendor   Role = "vendor"
	RoleSupplier Role = "supplier"
)

// allowedTransitions 静态角色转移表：(角色, 当前状态) -> 允许的目标状态集合。
// 表外的任意 (actor, from, to) 三元组一律拒绝。
var allowedTransitions = map[Role]map[OrderStatus][]OrderStatus{
	RoleVendor: {
		StatusAccepted:  {StatusConfirmed, StatusCancelled},
		StatusConfirmed: {StatusCancelled},
		StatusPreparing: {StatusCancelled},
		StatusReady:     {StatusInTransit},
		StatusInTransit: {StatusDelivered},
		StatusDelivered: {StatusCompleted},
	},
	RoleSupplier: {
		StatusAccepted:  {StatusPreparing},
		StatusConfirmed: {StatusPreparing},
		StatusPreparing: {StatusReady},
		StatusReady:     {StatusInTransit},
		StatusInTransit: {StatusDelivered},
	},
}

// CanTransition 判断角色是否允许 from -> to 的状态转移。
func CanTransition(role Role, from, to OrderStatus) bool {
	targets, ok := allowedTransitions[role][from]
	if !ok {
		return false
	}
	for _, t := range targets {
		if t == to {
			return true
		}
	}
	return false
}

// TransitionsFor 返回角色在当前状态下允许的目标状态，供查询接口展示。
func TransitionsFor(role Role, from OrderStatus) []OrderStatus {
	targets := allowedTransitions[role][from]
	out := make([]OrderStatus, len(targets))
	copy(out, targets)
	return out
}
