// Command auractl is a thin CLI binding over the journal and
// choreography packages (spec.md §6's CLI surface). It is explicitly
// out of the tested core: a plain flag/os.Args-dispatched main package,
// in the same style as the teacher's cmd/checker and cmd/params
// binaries, rather than a cobra tree (cobra isn't in the teacher's
// stack).
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/hxrts/aura/choreography"
	"github.com/hxrts/aura/effects"
	"github.com/hxrts/aura/ids"
	"github.com/hxrts/aura/journal"
)

// Exit codes per spec.md §6.
const (
	exitSuccess          = 0
	exitUserError        = 1
	exitPermissionDenied = 2
	exitNotFound         = 3
	exitTimeout          = 4
	exitProtocolFailure  = 5
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		usage()
		return exitUserError
	}

	store, accountID, err := openStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, "auractl:", err)
		return exitUserError
	}
	eff := effects.System()

	switch args[0] {
	case "whoami":
		return cmdWhoami(store, accountID)
	case "devices":
		return cmdDevices(store, eff, args[1:])
	case "guardians":
		return cmdGuardians(store, eff, args[1:])
	case "recovery":
		return cmdRecovery(store, eff, args[1:])
	case "sessions":
		return cmdSessions(store, args[1:])
	default:
		usage()
		return exitUserError
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: auractl <command> [args]

commands:
  whoami
  devices list|add|remove
  guardians list|add|remove
  recovery start|approve|dispute
  sessions list|cancel`)
}

// openStore opens AURA_DATA_DIR's bbolt journal if set, otherwise a
// fresh in-memory store for this invocation.
func openStore() (journal.Store, ids.AccountId, error) {
	accountID, err := ids.GenerateID32(nil)
	if err != nil {
		return nil, ids.AccountId{}, err
	}
	dir := os.Getenv("AURA_DATA_DIR")
	if dir == "" {
		return journal.NewMemStore(accountID), accountID, nil
	}
	path := dir + "/journal.bolt"
	store, err := journal.OpenPersistentStore(path, accountID)
	if err != nil {
		return nil, ids.AccountId{}, fmt.Errorf("open %s: %w", path, err)
	}
	return store, accountID, nil
}

func newEventID(eff effects.Effects) (ids.EventId, error) {
	return ids.GenerateID32(eff.Random)
}

func cmdWhoami(store journal.Store, accountID ids.AccountId) int {
	state, err := store.Fold()
	if err != nil {
		fmt.Fprintln(os.Stderr, "auractl:", err)
		return exitUserError
	}
	fmt.Printf("account:  %s\n", accountID)
	fmt.Printf("devices:  %d\n", len(state.Devices))
	fmt.Printf("guardians: %d\n", len(state.Guardians))
	fmt.Printf("threshold: %d of %d\n", state.Threshold, state.TotalParticipants)
	return exitSuccess
}

func cmdDevices(store journal.Store, eff effects.Effects, args []string) int {
	if len(args) == 0 {
		usage()
		return exitUserError
	}
	switch args[0] {
	case "list":
		state, err := store.Fold()
		if err != nil {
			fmt.Fprintln(os.Stderr, "auractl:", err)
			return exitUserError
		}
		for id, dev := range state.Devices {
			fmt.Printf("%s\t%s\tjoined=%s\n", id, dev.DeviceType, dev.JoinedAt.Format(time.RFC3339))
		}
		return exitSuccess
	case "add":
		fs := flag.NewFlagSet("devices add", flag.ContinueOnError)
		deviceType := fs.String("type", "", "device type")
		if err := fs.Parse(args[1:]); err != nil {
			return exitUserError
		}
		deviceID, err := ids.GenerateID16(eff.Random)
		if err != nil {
			fmt.Fprintln(os.Stderr, "auractl:", err)
			return exitProtocolFailure
		}
		state, err := store.Fold()
		if err != nil {
			fmt.Fprintln(os.Stderr, "auractl:", err)
			return exitUserError
		}
		eventID, err := newEventID(eff)
		if err != nil {
			fmt.Fprintln(os.Stderr, "auractl:", err)
			return exitProtocolFailure
		}
		e := journal.Event{
			Version: journal.Version, EventID: eventID, AccountID: state.AccountID,
			Timestamp: time.UnixMilli(eff.Now()), Nonce: state.NextNonce,
			ParentHash: state.LastEventHash, IsGenesis: state.EventCount == 0,
			EpochAtWrite: state.SessionEpoch, Kind: journal.EventKindDeviceAdded,
			Payload:       journal.Payload{DeviceID: deviceID, DeviceType: *deviceType},
			Authorization: journal.LifecycleInternal(),
		}
		if _, err := store.Append(e); err != nil {
			fmt.Fprintln(os.Stderr, "auractl:", err)
			return exitProtocolFailure
		}
		fmt.Println(deviceID)
		return exitSuccess
	case "remove":
		if len(args) < 2 {
			usage()
			return exitUserError
		}
		deviceID, err := ids.ID16FromString(args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "auractl: invalid device id:", err)
			return exitUserError
		}
		state, err := store.Fold()
		if err != nil {
			fmt.Fprintln(os.Stderr, "auractl:", err)
			return exitUserError
		}
		if _, ok := state.Devices[deviceID]; !ok {
			return exitNotFound
		}
		eventID, err := newEventID(eff)
		if err != nil {
			fmt.Fprintln(os.Stderr, "auractl:", err)
			return exitProtocolFailure
		}
		e := journal.Event{
			Version: journal.Version, EventID: eventID, AccountID: state.AccountID,
			Timestamp: time.UnixMilli(eff.Now()), Nonce: state.NextNonce,
			ParentHash: state.LastEventHash, EpochAtWrite: state.SessionEpoch,
			Kind:          journal.EventKindDeviceRemoved,
			Payload:       journal.Payload{DeviceID: deviceID},
			Authorization: journal.LifecycleInternal(),
		}
		if _, err := store.Append(e); err != nil {
			fmt.Fprintln(os.Stderr, "auractl:", err)
			return exitProtocolFailure
		}
		return exitSuccess
	default:
		usage()
		return exitUserError
	}
}

func cmdGuardians(store journal.Store, eff effects.Effects, args []string) int {
	if len(args) == 0 {
		usage()
		return exitUserError
	}
	switch args[0] {
	case "list":
		state, err := store.Fold()
		if err != nil {
			fmt.Fprintln(os.Stderr, "auractl:", err)
			return exitUserError
		}
		for id := range state.Guardians {
			fmt.Println(id)
		}
		return exitSuccess
	case "add", "remove":
		if len(args) < 2 && args[0] == "remove" {
			usage()
			return exitUserError
		}
		var guardianID ids.GuardianId
		var err error
		if args[0] == "add" {
			guardianID, err = ids.GenerateID16(eff.Random)
		} else {
			guardianID, err = ids.ID16FromString(args[1])
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "auractl:", err)
			return exitUserError
		}
		kind := journal.EventKindGuardianAdded
		if args[0] == "remove" {
			kind = journal.EventKindGuardianRemoved
		}
		state, err := store.Fold()
		if err != nil {
			fmt.Fprintln(os.Stderr, "auractl:", err)
			return exitUserError
		}
		eventID, err := newEventID(eff)
		if err != nil {
			fmt.Fprintln(os.Stderr, "auractl:", err)
			return exitProtocolFailure
		}
		e := journal.Event{
			Version: journal.Version, EventID: eventID, AccountID: state.AccountID,
			Timestamp: time.UnixMilli(eff.Now()), Nonce: state.NextNonce,
			ParentHash: state.LastEventHash, IsGenesis: state.EventCount == 0,
			EpochAtWrite: state.SessionEpoch, Kind: kind,
			Payload:       journal.Payload{GuardianID: guardianID},
			Authorization: journal.LifecycleInternal(),
		}
		if _, err := store.Append(e); err != nil {
			fmt.Fprintln(os.Stderr, "auractl:", err)
			return exitProtocolFailure
		}
		if args[0] == "add" {
			fmt.Println(guardianID)
		}
		return exitSuccess
	default:
		usage()
		return exitUserError
	}
}

func cmdRecovery(store journal.Store, eff effects.Effects, args []string) int {
	if len(args) == 0 {
		usage()
		return exitUserError
	}
	switch args[0] {
	case "start":
		fs := flag.NewFlagSet("recovery start", flag.ContinueOnError)
		deviceArg := fs.String("device", "", "recovering device id")
		cooldown := fs.Duration("cooldown", time.Hour, "recovery cooldown")
		threshold := fs.Int("threshold", 2, "guardian approval threshold")
		if err := fs.Parse(args[1:]); err != nil {
			return exitUserError
		}
		device, err := ids.ID16FromString(*deviceArg)
		if err != nil {
			fmt.Fprintln(os.Stderr, "auractl: invalid --device:", err)
			return exitUserError
		}
		recoveryID, err := ids.GenerateID32(eff.Random)
		if err != nil {
			return exitProtocolFailure
		}
		sess := choreography.NewSession(recoveryID, "GuardianRecovery", nil, *threshold)
		result, err := choreography.RunGuardianRecovery(store, eff, sess, recoveryID, device, *cooldown, nil, nil, *threshold)
		if err != nil {
			fmt.Fprintln(os.Stderr, "auractl:", err)
			return exitProtocolFailure
		}
		fmt.Printf("recovery %s: %s\n", recoveryID, result.Outcome)
		if result.Outcome == choreography.RecoveryOnCooldown {
			return exitUserError
		}
		return exitSuccess
	case "approve", "dispute":
		fmt.Fprintln(os.Stderr, "auractl: recovery", args[0], "requires an out-of-band guardian channel; not wired in this stub")
		return exitUserError
	default:
		usage()
		return exitUserError
	}
}

func cmdSessions(store journal.Store, args []string) int {
	if len(args) == 0 {
		usage()
		return exitUserError
	}
	switch args[0] {
	case "list":
		sessions, err := store.ActiveSessions()
		if err != nil {
			fmt.Fprintln(os.Stderr, "auractl:", err)
			return exitUserError
		}
		for _, s := range sessions {
			fmt.Printf("%s\t%s\t%s\n", s.SessionID, s.ProtocolType, s.Status)
		}
		return exitSuccess
	case "cancel":
		fmt.Fprintln(os.Stderr, "auractl: sessions cancel requires a running choreography task to signal; not wired in this stub")
		return exitUserError
	default:
		usage()
		return exitUserError
	}
}
