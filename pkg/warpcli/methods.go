package warpcli

import (
	"encoding/json"
	"time"

	"github.com/warpdl/warpvpn/common"
)

func invoke[T any](c *Client, method common.UpdateType, message any) (*T, error) {
	resp, err := c.invoke(method, message)
	if err != nil {
		return nil, err
	}
	var d T
	return &d, json.Unmarshal(resp, &d)
}

// Connect brings the tunnel up now with no scheduled disconnect.
func (c *Client) Connect(p *common.ConnectParams) (*common.ScheduleResponse, error) {
	return invoke[common.ScheduleResponse](c, common.UPDATE_CONNECT, p)
}

// Schedule submits a tunnel window between two instants.
func (c *Client) Schedule(p common.ConnectParams, start, end time.Time, days string) (*common.ScheduleResponse, error) {
	return invoke[common.ScheduleResponse](c, common.UPDATE_SCHEDULE, &common.ScheduleParams{
		ConnectParams: p,
		Start:         start,
		End:           end,
		Days:          days,
	})
}

// ScheduleClock submits a window given as UTC hour and minute of today.
func (c *Client) ScheduleClock(p common.ConnectParams, clock common.ClockWindow, days string) (*common.ScheduleResponse, error) {
	return invoke[common.ScheduleResponse](c, common.UPDATE_SCHEDULE, &common.ScheduleParams{
		ConnectParams: p,
		Clock:         &clock,
		Days:          days,
	})
}

// Stop tears the tunnel down and clears every schedule.
func (c *Client) Stop() error {
	_, err := c.invoke(common.UPDATE_STOP, nil)
	return err
}

func (c *Client) Cancel(scheduleId string) error {
	_, err := c.invoke(common.UPDATE_CANCEL, &common.CancelParams{ScheduleId: scheduleId})
	return err
}

func (c *Client) List() (*common.ListResponse, error) {
	return invoke[common.ListResponse](c, common.UPDATE_LIST, nil)
}

func (c *Client) Active() (*common.ActiveResponse, error) {
	return invoke[common.ActiveResponse](c, common.UPDATE_ACTIVE, nil)
}

// Watch subscribes the connection to UPDATE_EVENT pushes and returns the
// current state. Follow it with Listen.
func (c *Client) Watch() (*common.ActiveResponse, error) {
	return invoke[common.ActiveResponse](c, common.UPDATE_WATCH, nil)
}

func (c *Client) GetDaemonVersion() (*common.VersionResponse, error) {
	return invoke[common.VersionResponse](c, common.UPDATE_VERSION, nil)
}
