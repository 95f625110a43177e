package todolist

import "github.com/tos-network/todochain/metrics"

var (
	deployMeter  = metrics.NewRegisteredMeter("todolist/deploy", nil)
	createMeter  = metrics.NewRegisteredMeter("todolist/create", nil)
	updateMeter  = metrics.NewRegisteredMeter("todolist/update", nil)
	deleteMeter  = metrics.NewRegisteredMeter("todolist/delete", nil)
	emittedMeter = metrics.NewRegisteredMeter("todolist/logs", nil)
)
