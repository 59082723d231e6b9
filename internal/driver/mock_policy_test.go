// Mock written by hand in MockGen's output shape.
// Source: github.com/intermittent-sim/ehsim/internal/policy (interfaces: Scheme)

package driver_test

import (
	reflect "reflect"

	gomock "github.com/golang/mock/gomock"

	capacitor "github.com/intermittent-sim/ehsim/internal/capacitor"
	stats "github.com/intermittent-sim/ehsim/internal/stats"
)

// MockScheme is a mock of the policy.Scheme interface, hand-shaped after
// mockgen's usual output so internal/driver's unit tests can script a
// scheme's decisions without running a real ODAB/Clank/Magic energy model.
type MockScheme struct {
	ctrl     *gomock.Controller
	recorder *MockSchemeMockRecorder
}

type MockSchemeMockRecorder struct {
	mock *MockScheme
}

func NewMockScheme(ctrl *gomock.Controller) *MockScheme {
	mock := &MockScheme{ctrl: ctrl}
	mock.recorder = &MockSchemeMockRecorder{mock}
	return mock
}

func (m *MockScheme) EXPECT() *MockSchemeMockRecorder {
	return m.recorder
}

func (m *MockScheme) Battery() *capacitor.Capacitor {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Battery")
	ret0, _ := ret[0].(*capacitor.Capacitor)
	return ret0
}

func (mr *MockSchemeMockRecorder) Battery() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Battery", reflect.TypeOf((*MockScheme)(nil).Battery))
}

func (m *MockScheme) ClockFrequency() float64 {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ClockFrequency")
	ret0, _ := ret[0].(float64)
	return ret0
}

func (mr *MockSchemeMockRecorder) ClockFrequency() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ClockFrequency", reflect.TypeOf((*MockScheme)(nil).ClockFrequency))
}

func (m *MockScheme) IsActive(totals *stats.Totals) bool {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "IsActive", totals)
	ret0, _ := ret[0].(bool)
	return ret0
}

func (mr *MockSchemeMockRecorder) IsActive(totals interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "IsActive", reflect.TypeOf((*MockScheme)(nil).IsActive), totals)
}

func (m *MockScheme) ExecuteInstruction(totals *stats.Totals) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "ExecuteInstruction", totals)
}

func (mr *MockSchemeMockRecorder) ExecuteInstruction(totals interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ExecuteInstruction", reflect.TypeOf((*MockScheme)(nil).ExecuteInstruction), totals)
}

func (m *MockScheme) WillBackup(totals *stats.Totals) bool {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "WillBackup", totals)
	ret0, _ := ret[0].(bool)
	return ret0
}

func (mr *MockSchemeMockRecorder) WillBackup(totals interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "WillBackup", reflect.TypeOf((*MockScheme)(nil).WillBackup), totals)
}

func (m *MockScheme) Backup(totals *stats.Totals) uint64 {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Backup", totals)
	ret0, _ := ret[0].(uint64)
	return ret0
}

func (mr *MockSchemeMockRecorder) Backup(totals interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Backup", reflect.TypeOf((*MockScheme)(nil).Backup), totals)
}

func (m *MockScheme) Restore(totals *stats.Totals) uint64 {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Restore", totals)
	ret0, _ := ret[0].(uint64)
	return ret0
}

func (mr *MockSchemeMockRecorder) Restore(totals interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Restore", reflect.TypeOf((*MockScheme)(nil).Restore), totals)
}
