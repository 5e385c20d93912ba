package planner

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/frostdev-ops/home-planner-go/internal/config"
	"github.com/frostdev-ops/home-planner-go/internal/core/assignment"
	"github.com/frostdev-ops/home-planner-go/internal/core/floorplan"
	"github.com/frostdev-ops/home-planner-go/internal/core/scoring"
	"github.com/frostdev-ops/home-planner-go/internal/core/types"
	"github.com/frostdev-ops/home-planner-go/internal/database"
	"github.com/frostdev-ops/home-planner-go/internal/database/repositories"
	"github.com/frostdev-ops/home-planner-go/internal/publisher"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []publisher.ChangeEvent
}

func (r *recorder) Publish(_ context.Context, ev publisher.ChangeEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) collections() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Collection + ":" + string(ev.Action)
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

func newTestService(t *testing.T) (*Service, *recorder) {
	t.Helper()

	db, err := database.Initialize(config.DatabaseConfig{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db.DB, "../../../migrations"))

	log := logrus.New()
	log.SetOutput(io.Discard)

	rec := &recorder{}
	svc := NewService(database.NewRepositories(db), rec, nil, floorplan.NewProcessor(config.FloorplanConfig{}), log)
	return svc, rec
}

func sensor(name string, quantity int) *types.Device {
	return &types.Device{
		Category:        types.CategorySensor,
		Name:            name,
		Price:           10,
		PriceEvaluation: types.EvaluationGood,
		Connectivity:    types.ConnectivityZigbee,
		Quantity:        quantity,
		Specs:           []types.Specification{{Name: "Battery", Value: "2 years", Evaluation: types.EvaluationGood}},
	}
}

func mustFloor(t *testing.T, svc *Service, name string) *types.Floor {
	t.Helper()
	f := &types.Floor{Name: name}
	require.NoError(t, svc.CreateFloor(context.Background(), f))
	return f
}

func TestCreateDevice_ScoresAndPublishes(t *testing.T) {
	svc, rec := newTestService(t)
	ctx := context.Background()

	d := sensor("Door sensor", 2)
	d.Tags = []string{" door ", "door", ""}
	d.IsGateway = true
	d.GatewayProtocols = []types.Connectivity{types.ConnectivityZigbee}
	require.NoError(t, svc.CreateDevice(ctx, d))

	assert.NotEmpty(t, d.ID)
	assert.Equal(t, scoring.ForDevice(d), d.Score)
	assert.Equal(t, []string{"door"}, d.Tags)
	assert.NotEmpty(t, d.Specs[0].ID)
	// gateway fields do not apply to sensors
	assert.False(t, d.IsGateway)
	assert.Nil(t, d.GatewayProtocols)
	assert.Equal(t, []string{"sensors:created"}, rec.collections())

	got, err := svc.GetDevice(ctx, types.CategorySensor, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.Score, got.Score)

	_, err = svc.GetDevice(ctx, types.CategorySwitch, d.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestCreateDevice_Validation(t *testing.T) {
	svc, rec := newTestService(t)

	tests := []struct {
		name   string
		device types.Device
		fields []string
	}{
		{
			name:   "missing name and evaluation",
			device: types.Device{Category: types.CategorySwitch, Connectivity: types.ConnectivityTuya},
			fields: []string{"name", "price_evaluation"},
		},
		{
			name:   "unknown connectivity",
			device: types.Device{Category: types.CategoryLighting, Name: "Bulb", PriceEvaluation: types.EvaluationBad, Connectivity: "wifi"},
			fields: []string{"connectivity"},
		},
		{
			name: "compatibility out of range",
			device: types.Device{Category: types.CategoryGateway, Name: "Hub", PriceEvaluation: types.EvaluationGood,
				HomeAssistantCompatibility: 6},
			fields: []string{"home_assistant_compatibility"},
		},
		{
			name: "other_app cannot be bridged",
			device: types.Device{Category: types.CategoryGateway, Name: "Hub", PriceEvaluation: types.EvaluationGood,
				GatewayProtocols: []types.Connectivity{types.ConnectivityOtherApp}},
			fields: []string{"gateway_protocols[0]"},
		},
		{
			name: "negative values and bad link",
			device: types.Device{Category: types.CategoryOtherDevice, Name: "Plug", PriceEvaluation: types.EvaluationGood,
				Connectivity: types.ConnectivityMatter, Price: -1, Quantity: -1, Link: "ftp://shop"},
			fields: []string{"price", "quantity", "link"},
		},
		{
			name:   "unknown category",
			device: types.Device{Category: "robot", Name: "Vacuum", PriceEvaluation: types.EvaluationGood},
			fields: []string{"category"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := tt.device
			err := svc.CreateDevice(context.Background(), &d)
			require.Error(t, err)
			assert.True(t, IsValidation(err))

			var fields []string
			for _, fe := range err.(*ValidationError).Errors {
				fields = append(fields, fe.Field)
			}
			assert.ElementsMatch(t, tt.fields, fields)
		})
	}
	assert.Empty(t, rec.collections())
}

func TestUpdateDevice_KeepsCategoryAndRescores(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	d := &types.Device{Category: types.CategoryVoiceAssistant, Name: "Speaker", PriceEvaluation: types.EvaluationMedium,
		HomeAssistantCompatibility: 3}
	require.NoError(t, svc.CreateDevice(ctx, d))
	before := d.Score

	update := &types.Device{ID: d.ID, Category: types.CategoryVoiceAssistant, Name: "Speaker", PriceEvaluation: types.EvaluationMedium,
		HomeAssistantCompatibility: 3, IsGateway: true,
		GatewayProtocols: []types.Connectivity{types.ConnectivityZigbee, types.ConnectivityMatter, types.ConnectivityZigbee}}
	require.NoError(t, svc.UpdateDevice(ctx, update))

	got, err := svc.GetDevice(ctx, types.CategoryVoiceAssistant, d.ID)
	require.NoError(t, err)
	assert.Equal(t, []types.Connectivity{types.ConnectivityZigbee, types.ConnectivityMatter}, got.GatewayProtocols)
	assert.Equal(t, scoring.ForDevice(got), got.Score)
	assert.NotEqual(t, before, got.Score)
	assert.Equal(t, d.CreatedAt.Unix(), got.CreatedAt.Unix())

	wrong := *update
	wrong.Category = types.CategoryGateway
	assert.ErrorIs(t, svc.UpdateDevice(ctx, &wrong), repositories.ErrNotFound)
}

func TestPreviewScore(t *testing.T) {
	svc, _ := newTestService(t)
	d := sensor("Motion", 0)
	assert.Equal(t, scoring.ForDevice(d), svc.PreviewScore(*d))
	assert.Empty(t, d.Specs[0].ID, "preview must not mutate the form")
}

func TestCreateRoom_ValidatesReferences(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	d := sensor("Door", 1)
	require.NoError(t, svc.CreateDevice(ctx, d))

	err := svc.CreateRoom(ctx, &types.Room{Name: "Kitchen", FloorID: "missing",
		Devices: []types.RoomDeviceInstance{{DeviceID: "nope"}}})
	require.Error(t, err)
	var v *ValidationError
	require.ErrorAs(t, err, &v)
	assert.Len(t, v.Errors, 2)

	floor := mustFloor(t, svc, "Ground")
	room := &types.Room{Name: " Kitchen ", FloorID: floor.ID, Devices: []types.RoomDeviceInstance{{DeviceID: d.ID}}}
	require.NoError(t, svc.CreateRoom(ctx, room))
	assert.Equal(t, "Kitchen", room.Name)
	require.Len(t, room.Devices, 1)
	assert.NotEmpty(t, room.Devices[0].InstanceID)
	assert.Equal(t, "Door", room.Devices[0].CustomName)

	// instance ids are unique across rooms
	dup := &types.Room{Name: "Hall", FloorID: floor.ID,
		Devices: []types.RoomDeviceInstance{{InstanceID: room.Devices[0].InstanceID, DeviceID: d.ID}}}
	assert.True(t, IsValidation(svc.CreateRoom(ctx, dup)))
}

func TestRoomQuota(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	d := sensor("Door", 1)
	require.NoError(t, svc.CreateDevice(ctx, d))
	floor := mustFloor(t, svc, "Ground")

	a := &types.Room{Name: "A", FloorID: floor.ID, Devices: []types.RoomDeviceInstance{{DeviceID: d.ID, IsOwned: true}}}
	require.NoError(t, svc.CreateRoom(ctx, a))

	b := &types.Room{Name: "B", FloorID: floor.ID}
	require.NoError(t, svc.CreateRoom(ctx, b))
	b, inst, err := svc.AddDevice(ctx, b.ID, d.ID)
	require.NoError(t, err)
	assert.False(t, inst.IsOwned)

	_, err = svc.SetOwned(ctx, b.ID, inst.InstanceID, true)
	assert.ErrorIs(t, err, assignment.ErrQuotaExceeded)

	b.Devices[0].IsOwned = true
	err = svc.UpdateRoom(ctx, b)
	var q *QuotaError
	require.ErrorAs(t, err, &q)
	assert.ErrorIs(t, err, assignment.ErrQuotaExceeded)
	assert.Equal(t, []assignment.Usage{{DeviceID: d.ID, Owned: 1, Used: 2}}, q.Overdrawn)

	// freeing the unit in A makes it available to B
	_, err = svc.SetOwned(ctx, a.ID, a.Devices[0].InstanceID, false)
	require.NoError(t, err)
	b, err = svc.SetOwned(ctx, b.ID, inst.InstanceID, true)
	require.NoError(t, err)
	assert.True(t, b.Devices[0].IsOwned)

	draft := []types.RoomDeviceInstance{{InstanceID: a.Devices[0].InstanceID, DeviceID: d.ID}}
	view, err := svc.Quota(ctx, a.ID, draft)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{a.Devices[0].InstanceID: false}, view.Availability)
	assert.Equal(t, []assignment.Usage{{DeviceID: d.ID, Owned: 1, Used: 1}}, view.Usage)
}

func TestUpdateRoom_OverdrawnButNotGrowingIsAccepted(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	d := sensor("Door", 1)
	require.NoError(t, svc.CreateDevice(ctx, d))
	floor := mustFloor(t, svc, "Ground")
	room := &types.Room{Name: "A", FloorID: floor.ID, Devices: []types.RoomDeviceInstance{{DeviceID: d.ID, IsOwned: true}}}
	require.NoError(t, svc.CreateRoom(ctx, room))

	d.Quantity = 0
	require.NoError(t, svc.UpdateDevice(ctx, d))

	room.Name = "Renamed"
	assert.NoError(t, svc.UpdateRoom(ctx, room))
}

func TestRemoveDevice(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	d := sensor("Door", 1)
	require.NoError(t, svc.CreateDevice(ctx, d))
	floor := mustFloor(t, svc, "Ground")
	room := &types.Room{Name: "A", FloorID: floor.ID, Devices: []types.RoomDeviceInstance{{DeviceID: d.ID}, {DeviceID: d.ID}}}
	require.NoError(t, svc.CreateRoom(ctx, room))

	got, err := svc.RemoveDevice(ctx, room.ID, room.Devices[0].InstanceID)
	require.NoError(t, err)
	require.Len(t, got.Devices, 1)
	assert.Equal(t, room.Devices[1].InstanceID, got.Devices[0].InstanceID)

	_, err = svc.RemoveDevice(ctx, room.ID, "missing")
	assert.ErrorIs(t, err, assignment.ErrInstanceNotFound)
}

func TestTemplates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	d := sensor("Door", 0)
	require.NoError(t, svc.CreateDevice(ctx, d))
	floor := mustFloor(t, svc, "Ground")

	tpl := &types.RoomTemplate{Name: "Bedroom", Devices: []types.RoomDeviceInstance{{DeviceID: d.ID, CustomName: "Window", IsOwned: true}}}
	require.NoError(t, svc.CreateTemplate(ctx, tpl))
	assert.NotEmpty(t, tpl.Devices[0].InstanceID)

	assert.True(t, IsValidation(svc.CreateTemplate(ctx, &types.RoomTemplate{Name: "Bad", Devices: []types.RoomDeviceInstance{{DeviceID: "nope"}}})))

	// owned flags are copied even though the device has no stock
	room := &types.Room{Name: "Guest", FloorID: floor.ID}
	require.NoError(t, svc.CreateRoomFromTemplate(ctx, tpl.ID, room))
	require.Len(t, room.Devices, 1)
	assert.True(t, room.Devices[0].IsOwned)
	assert.Equal(t, "Window", room.Devices[0].CustomName)
	assert.NotEqual(t, tpl.Devices[0].InstanceID, room.Devices[0].InstanceID)

	room, err := svc.ApplyTemplate(ctx, room.ID, tpl.ID)
	require.NoError(t, err)
	require.Len(t, room.Devices, 2)
	assert.NotEqual(t, room.Devices[0].InstanceID, room.Devices[1].InstanceID)

	tpl.Name = "Main bedroom"
	require.NoError(t, svc.UpdateTemplate(ctx, tpl))
	require.NoError(t, svc.DeleteTemplate(ctx, tpl.ID))
	_, err = svc.ApplyTemplate(ctx, room.ID, tpl.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestDeleteFloor_CascadesRooms(t *testing.T) {
	svc, rec := newTestService(t)
	ctx := context.Background()

	ground := mustFloor(t, svc, "Ground")
	upper := mustFloor(t, svc, "Upper")
	require.NoError(t, svc.CreateRoom(ctx, &types.Room{Name: "Kitchen", FloorID: ground.ID}))
	require.NoError(t, svc.CreateRoom(ctx, &types.Room{Name: "Hall", FloorID: ground.ID}))
	require.NoError(t, svc.CreateRoom(ctx, &types.Room{Name: "Bedroom", FloorID: upper.ID}))
	rec.reset()

	require.NoError(t, svc.DeleteFloor(ctx, ground.ID))
	assert.Equal(t, []string{"rooms:deleted", "rooms:deleted", "floors:deleted"}, rec.collections())

	rooms, err := svc.ListRooms(ctx, repositories.Query{})
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "Bedroom", rooms[0].Name)

	assert.ErrorIs(t, svc.DeleteFloor(ctx, ground.ID), repositories.ErrNotFound)
}

func TestFloorLayout(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	d := sensor("Door", 0)
	require.NoError(t, svc.CreateDevice(ctx, d))
	floor := mustFloor(t, svc, "Ground")

	_, err := svc.UpdateLayout(ctx, floor.ID, types.FloorLayout{PlacedDevices: []types.PlacedDevice{{DeviceID: "nope"}}})
	assert.True(t, IsValidation(err))

	f, err := svc.UpdateLayout(ctx, floor.ID, types.FloorLayout{
		Walls:         []types.Wall{{Start: types.Point{X: 0, Y: 0}, End: types.Point{X: 5, Y: 0}}},
		PlacedDevices: []types.PlacedDevice{{DeviceID: d.ID, X: 1, Y: 1}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, f.Layout.Walls[0].ID)

	renamed, err := svc.RenameFloor(ctx, floor.ID, "Ground floor")
	require.NoError(t, err)
	assert.Len(t, renamed.Layout.PlacedDevices, 1)

	_, err = svc.SetBackground(ctx, floor.ID, []byte("not an image"))
	assert.ErrorIs(t, err, floorplan.ErrUnsupportedType)
}

func TestSetHouseGateways(t *testing.T) {
	svc, rec := newTestService(t)
	ctx := context.Background()

	gw := &types.Device{Category: types.CategoryGateway, Name: "Hub", PriceEvaluation: types.EvaluationGood,
		GatewayProtocols: []types.Connectivity{types.ConnectivityZigbee}}
	require.NoError(t, svc.CreateDevice(ctx, gw))
	s := sensor("Door", 0)
	require.NoError(t, svc.CreateDevice(ctx, s))

	_, err := svc.SetHouseGateways(ctx, []string{s.ID})
	assert.True(t, IsValidation(err))

	rec.reset()
	house, err := svc.SetHouseGateways(ctx, []string{gw.ID, gw.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{gw.ID}, house.GatewayIDs)
	assert.Equal(t, []string{"house_config:updated"}, rec.collections())
}

func TestViews(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	door := sensor("Door", 0)
	require.NoError(t, svc.CreateDevice(ctx, door))
	floor := mustFloor(t, svc, "Ground")
	require.NoError(t, svc.CreateRoom(ctx, &types.Room{Name: "Hall", FloorID: floor.ID,
		Devices: []types.RoomDeviceInstance{{DeviceID: door.ID}, {DeviceID: door.ID}}}))

	list, err := svc.ShoppingList(ctx)
	require.NoError(t, err)
	assert.Len(t, list.Items, 2)
	assert.Equal(t, 20.0, list.Total)

	report, err := svc.Compatibility(ctx)
	require.NoError(t, err)
	require.Len(t, report.Rooms, 1)
	require.Len(t, report.Rooms[0].Missing, 1)
	assert.Equal(t, types.ConnectivityZigbee, report.Rooms[0].Missing[0].Protocol)

	v, ok, err := svc.View(ctx, ViewTopology)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotNil(t, v)

	_, ok, err = svc.View(ctx, "weather")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestViewsFollowWrites(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	door := sensor("Door", 0)
	require.NoError(t, svc.CreateDevice(ctx, door))
	floor := mustFloor(t, svc, "Ground")
	room := &types.Room{Name: "Hall", FloorID: floor.ID, Devices: []types.RoomDeviceInstance{{DeviceID: door.ID}}}
	require.NoError(t, svc.CreateRoom(ctx, room))

	list, err := svc.ShoppingList(ctx)
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)
	_, err = svc.ShoppingList(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), svc.CacheStats().HitCount)

	_, _, err = svc.AddDevice(ctx, room.ID, door.ID)
	require.NoError(t, err)

	list, err = svc.ShoppingList(ctx)
	require.NoError(t, err)
	assert.Len(t, list.Items, 2, "the write dropped the cached list")

	hidden, err := svc.Topology(ctx, map[string]bool{room.ID: true})
	require.NoError(t, err)
	shown, err := svc.Topology(ctx, nil)
	require.NoError(t, err)
	assert.NotEqual(t, hidden, shown, "hidden rooms are cached separately")
}

func TestListByCollection(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.CreateDevice(ctx, sensor("Door", 0)))

	v, err := svc.List(ctx, types.CollectionSensors, repositories.Query{})
	require.NoError(t, err)
	assert.Len(t, v, 1)

	v, err = svc.List(ctx, types.CollectionSwitches, repositories.Query{})
	require.NoError(t, err)
	assert.Len(t, v, 0)

	v, err = svc.List(ctx, types.CollectionHouseConfig, repositories.Query{})
	require.NoError(t, err)
	assert.IsType(t, &types.HouseConfig{}, v)

	_, err = svc.List(ctx, "weather", repositories.Query{})
	assert.ErrorIs(t, err, ErrUnknownCollection)
	assert.ErrorIs(t, err, repositories.ErrInvalidQuery)
}

func TestRestore(t *testing.T) {
	svc, rec := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.CreateDevice(ctx, sensor("Old", 1)))
	mustFloor(t, svc, "Old floor")
	rec.reset()

	snap := &types.Snapshot{
		Devices: []types.Device{*sensor("New", 2)},
		Floors:  []types.Floor{{ID: "f1", Name: "Ground"}},
		Rooms:   []types.Room{{ID: "r1", Name: "Hall", FloorID: "f1"}},
		House:   types.HouseConfig{GatewayIDs: []string{}},
	}
	snap.Devices[0].ID = "d1"
	snap.Rooms[0].Devices = []types.RoomDeviceInstance{{InstanceID: "i1", DeviceID: "d1", CustomName: "Door", IsOwned: true}}
	require.NoError(t, svc.Restore(ctx, snap))

	got, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, got.Devices, 1)
	assert.Equal(t, "d1", got.Devices[0].ID)
	assert.Equal(t, scoring.ForDevice(&got.Devices[0]), got.Devices[0].Score)
	require.Len(t, got.Floors, 1)
	require.Len(t, got.Rooms, 1)
	assert.Equal(t, "i1", got.Rooms[0].Devices[0].InstanceID)
	assert.Len(t, rec.collections(), len(types.Collections))

	bad := &types.Snapshot{Devices: []types.Device{{Category: types.CategorySensor}}}
	err = svc.Restore(ctx, bad)
	assert.True(t, IsValidation(err))

	// a rejected restore leaves the store untouched
	after, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, after.Devices, 1)
}

func TestRestore_RejectedSnapshotKeepsStore(t *testing.T) {
	svc, rec := newTestService(t)
	ctx := context.Background()

	kept := sensor("Kept", 1)
	require.NoError(t, svc.CreateDevice(ctx, kept))
	floor := mustFloor(t, svc, "Kept floor")
	require.NoError(t, svc.CreateRoom(ctx, &types.Room{Name: "Kept room", FloorID: floor.ID}))
	rec.reset()

	restoreOf := func(mutate func(*types.Snapshot)) *types.Snapshot {
		snap := &types.Snapshot{
			Devices: []types.Device{*sensor("New", 2)},
			Floors:  []types.Floor{{ID: "f1", Name: "Ground"}},
			Rooms: []types.Room{
				{ID: "r1", Name: "A", FloorID: "f1", Devices: []types.RoomDeviceInstance{{InstanceID: "i1", DeviceID: "d1"}}},
				{ID: "r2", Name: "B", FloorID: "f1", Devices: []types.RoomDeviceInstance{{InstanceID: "i2", DeviceID: "d1"}}},
			},
		}
		snap.Devices[0].ID = "d1"
		mutate(snap)
		return snap
	}

	tests := []struct {
		name   string
		mutate func(*types.Snapshot)
		field  string
	}{
		{
			name:   "instance id shared by two rooms",
			mutate: func(s *types.Snapshot) { s.Rooms[1].Devices[0].InstanceID = "i1" },
			field:  "rooms[1].devices[0].instance_id",
		},
		{
			name:   "room on a missing floor",
			mutate: func(s *types.Snapshot) { s.Rooms[0].FloorID = "no-such-floor" },
			field:  "rooms[0].floor_id",
		},
		{
			name:   "room without floor",
			mutate: func(s *types.Snapshot) { s.Rooms[0].FloorID = "" },
			field:  "rooms[0].floor_id",
		},
		{
			name:   "duplicate room id",
			mutate: func(s *types.Snapshot) { s.Rooms[1].ID = "r1" },
			field:  "rooms[1].id",
		},
		{
			name:   "house gateway that is a sensor",
			mutate: func(s *types.Snapshot) { s.House.GatewayIDs = []string{"d1"} },
			field:  "house_config.gateway_ids[0]",
		},
		{
			name: "template with repeated instance id",
			mutate: func(s *types.Snapshot) {
				s.Templates = []types.RoomTemplate{{ID: "t1", Name: "Bedroom", Devices: []types.RoomDeviceInstance{
					{InstanceID: "x", DeviceID: "d1"}, {InstanceID: "x", DeviceID: "d1"},
				}}}
			},
			field: "room_templates[0].devices[1].instance_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Restore(ctx, restoreOf(tt.mutate))
			require.True(t, IsValidation(err), "got %v", err)

			var v *ValidationError
			require.ErrorAs(t, err, &v)
			fields := make([]string, len(v.Errors))
			for i, fe := range v.Errors {
				fields[i] = fe.Field
			}
			assert.Contains(t, fields, tt.field)

			snap, err := svc.Snapshot(ctx)
			require.NoError(t, err)
			require.Len(t, snap.Devices, 1)
			assert.Equal(t, "Kept", snap.Devices[0].Name)
			require.Len(t, snap.Rooms, 1)
			assert.Equal(t, "Kept room", snap.Rooms[0].Name)
			assert.Equal(t, floor.ID, snap.Rooms[0].FloorID)
			assert.Empty(t, rec.collections())
		})
	}
}

func TestRestore_KeepsDanglingDeviceReferences(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	snap := &types.Snapshot{
		Floors: []types.Floor{{ID: "f1", Name: "Ground"}},
		Rooms: []types.Room{{ID: "r1", Name: "Hall", FloorID: "f1", Devices: []types.RoomDeviceInstance{
			{InstanceID: "i1", DeviceID: "deleted-device"},
		}}},
		House: types.HouseConfig{GatewayIDs: []string{"deleted-gateway"}},
	}
	require.NoError(t, svc.Restore(ctx, snap))

	room, err := svc.GetRoom(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "deleted-device", room.Devices[0].DeviceID)
}
