// Copyright 2025 The stellarhw Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package simulator

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/pion/logging"
	"github.com/stellarhw/app-stellar-harness/api/common"
	"github.com/stellarhw/app-stellar-harness/api/stellar"
	"github.com/stellarhw/app-stellar-harness/communication/tcpapdu"
	"github.com/stellarhw/app-stellar-harness/screen"
	"github.com/stellarhw/app-stellar-harness/util/errp"
)

const (
	startPollInterval = 100 * time.Millisecond
	dialTimeout       = 200 * time.Millisecond
)

// Instance is a Speculos child process running the app of one device family.
type Instance struct {
	id     uuid.UUID
	model  common.Model
	config Config
	log    logging.LeveledLogger

	mutex         sync.Mutex
	started       bool
	apduPort      int
	apiPort       int
	cmd           *exec.Cmd
	stdout        *logWriter
	stderr        *logWriter
	done          chan struct{}
	exitErr       error
	conn          net.Conn
	communication *tcpapdu.Communication
	api           *apiClient

	closeOnce sync.Once
	closeErr  error
}

// NewInstance creates an unstarted instance.
func NewInstance(model common.Model, config Config) *Instance {
	defaults := DefaultConfig()
	if len(config.Command) == 0 {
		config.Command = defaults.Command
	}
	if config.Seed == "" {
		config.Seed = defaults.Seed
	}
	if config.Display == "" {
		config.Display = defaults.Display
	}
	if config.StartTimeout <= 0 {
		config.StartTimeout = defaults.StartTimeout
	}
	if config.StopGrace <= 0 {
		config.StopGrace = defaults.StopGrace
	}
	if config.LoggerFactory == nil {
		config.LoggerFactory = logging.NewDefaultLoggerFactory()
	}
	return &Instance{
		id:     uuid.New(),
		model:  model,
		config: config,
		log:    config.LoggerFactory.NewLogger("simulator"),
		done:   make(chan struct{}),
	}
}

// ID identifies the instance in logs.
func (instance *Instance) ID() uuid.UUID {
	return instance.id
}

// Model implements Simulator.
func (instance *Instance) Model() common.Model {
	return instance.model
}

// Ports returns the APDU and REST API ports. They are zero before Start.
func (instance *Instance) Ports() (int, int) {
	instance.mutex.Lock()
	defer instance.mutex.Unlock()
	return instance.apduPort, instance.apiPort
}

func (instance *Instance) args() []string {
	args := append([]string{}, instance.config.Command[1:]...)
	args = append(args,
		instance.model.BinaryPath(instance.config.ELFDir),
		"--model", instance.model.ID,
		"--display", instance.config.Display,
		"--apdu-port", strconv.Itoa(instance.apduPort),
		"--api-port", strconv.Itoa(instance.apiPort),
		"--seed", instance.config.Seed,
	)
	if plugin := instance.model.PluginBinaryPath(instance.config.ELFDir); plugin != "" {
		if _, err := os.Stat(plugin); err == nil {
			args = append(args, "-l", "plugin:"+plugin)
		}
	}
	return append(args, instance.config.ExtraArgs...)
}

// Start implements Simulator.
func (instance *Instance) Start(ctx context.Context) error {
	instance.mutex.Lock()
	defer instance.mutex.Unlock()
	if instance.started {
		return errp.Newf("instance %s already started", instance.id)
	}
	instance.started = true

	binary := instance.model.BinaryPath(instance.config.ELFDir)
	if _, err := os.Stat(binary); err != nil {
		return errp.WithMessagef(errp.WithStack(err), "app binary of %s", instance.model)
	}
	var err error
	if instance.apduPort, err = freePort(); err != nil {
		return err
	}
	if instance.apiPort, err = freePort(instance.apduPort); err != nil {
		return err
	}

	prefix := fmt.Sprintf("[%s %s]", instance.model.ID, instance.id.String()[:8])
	logger := instance.config.LoggerFactory.NewLogger("speculos")
	instance.stdout = newLogWriter(prefix, logger)
	instance.stderr = newLogWriter(prefix, logger)
	instance.cmd = exec.Command(instance.config.Command[0], instance.args()...)
	instance.cmd.Stdout = instance.stdout
	instance.cmd.Stderr = instance.stderr
	if err := instance.cmd.Start(); err != nil {
		instance.cmd = nil
		return errp.WithMessage(errp.WithStack(err), "failed to start speculos")
	}
	instance.log.Infof("%s started pid %d, apdu port %d, api port %d",
		prefix, instance.cmd.Process.Pid, instance.apduPort, instance.apiPort)
	go func() {
		defer close(instance.done)
		instance.exitErr = instance.cmd.Wait()
	}()

	instance.api = newAPIClient(
		fmt.Sprintf("http://127.0.0.1:%d", instance.apiPort), instance.config.HTTPClient)
	return instance.waitReady(ctx)
}

// waitReady waits until the APDU port accepts a connection and the REST API answers.
func (instance *Instance) waitReady(ctx context.Context) error {
	apduAddress := net.JoinHostPort("127.0.0.1", strconv.Itoa(instance.apduPort))
	return screen.Await(ctx, instance.config.StartTimeout, startPollInterval,
		func(ctx context.Context) (bool, error) {
			select {
			case <-instance.done:
				return false, errp.Newf("speculos exited during startup: %v", instance.exitErr)
			default:
			}
			if instance.conn == nil {
				conn, err := net.DialTimeout("tcp", apduAddress, dialTimeout)
				if err != nil {
					return false, nil
				}
				instance.conn = conn
				instance.communication = tcpapdu.NewCommunication(conn)
			}
			if _, err := instance.api.events(ctx); err != nil {
				return false, nil
			}
			return true, nil
		})
}

func (instance *Instance) client() (*apiClient, error) {
	instance.mutex.Lock()
	defer instance.mutex.Unlock()
	if instance.api == nil {
		return nil, errp.Newf("instance %s is not started", instance.id)
	}
	return instance.api, nil
}

// Communication implements Simulator.
func (instance *Instance) Communication() stellar.Communication {
	instance.mutex.Lock()
	defer instance.mutex.Unlock()
	if instance.communication == nil {
		return nil
	}
	return instance.communication
}

// Snapshot implements Simulator.
func (instance *Instance) Snapshot(ctx context.Context) (screen.Snapshot, error) {
	api, err := instance.client()
	if err != nil {
		return screen.Snapshot{}, err
	}
	return api.snapshot(ctx)
}

// Press implements Simulator.
func (instance *Instance) Press(ctx context.Context, button common.Button) error {
	api, err := instance.client()
	if err != nil {
		return err
	}
	return api.press(ctx, button)
}

// Touch implements Simulator.
func (instance *Instance) Touch(ctx context.Context, x, y int, hold time.Duration) error {
	api, err := instance.client()
	if err != nil {
		return err
	}
	return api.touch(ctx, x, y, hold)
}

// ScreenText implements Simulator.
func (instance *Instance) ScreenText(ctx context.Context) ([]string, error) {
	api, err := instance.client()
	if err != nil {
		return nil, err
	}
	return api.screenText(ctx)
}

// Close implements Simulator. The process gets SIGTERM and is killed if it has not exited after
// the grace period.
func (instance *Instance) Close() error {
	instance.closeOnce.Do(func() {
		instance.mutex.Lock()
		defer instance.mutex.Unlock()
		instance.closeErr = instance.stop()
	})
	return instance.closeErr
}

func (instance *Instance) stop() error {
	var result error
	if instance.conn != nil {
		if err := instance.conn.Close(); err != nil {
			result = errp.WithStack(err)
		}
	}
	if instance.cmd == nil {
		return result
	}
	if err := instance.cmd.Process.Signal(syscall.SIGTERM); err != nil &&
		!errors.Is(err, os.ErrProcessDone) {
		instance.log.Warnf("SIGTERM to speculos %s failed: %v", instance.id, err)
	}
	timer := time.NewTimer(instance.config.StopGrace)
	defer timer.Stop()
	select {
	case <-instance.done:
	case <-timer.C:
		instance.log.Warnf("speculos %s did not exit after %s, killing it", instance.id, instance.config.StopGrace)
		if err := instance.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			return errp.WithMessage(errp.WithStack(err), "failed to kill speculos")
		}
		<-instance.done
	}
	instance.stdout.Flush()
	instance.stderr.Flush()
	instance.log.Infof("speculos %s stopped", instance.id)
	return result
}
