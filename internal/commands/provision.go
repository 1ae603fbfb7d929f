package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"snow/internal/config"
	"snow/internal/logger"
	"snow/internal/runner"
	"snow/internal/snowerr"
	"snow/internal/state"
)

// imageStamp is the fixed timestamp qmrestore needs in a vzdump file name.
const imageStamp = "2024_06_01-10_00_00"

// provisionSSHOpts lets the first deployment reach a VM whose host key is not known yet.
const provisionSSHOpts = "-o StrictHostKeyChecking=no -o UserKnownHostsFile=/dev/null"

// ProvisionOptions are the optional steps after a VM is up.
type ProvisionOptions struct {
	LoginAfter   bool // ssh into the VM at the end
	RebuildLocal bool // rebuild the local host so its ssh handle for the VM is available
}

func ssh(args ...string) runner.Command {
	return runner.NewCommand("ssh", args, false)
}

// orCleanup removes the build result when err is a failure. The original failure is
// returned even when the cleanup fails too.
func (s *Snow) orCleanup(err error) error {
	if err == nil {
		return nil
	}
	if rmErr := os.RemoveAll(s.resultPath); rmErr != nil {
		logger.Debug("Cleanup of %s failed: %v", s.resultPath, rmErr)
	}
	return err
}

// Provision creates the VM described by the snow config of name, imports it into
// Proxmox, distributes its host key to the secrets and deploys its configuration.
func (s *Snow) Provision(name string, opts ProvisionOptions) error {
	snowConfig, err := s.SnowConfig(name)
	if err != nil {
		return err
	}
	if snowConfig.VM == nil {
		return snowerr.Configf("VM settings are not configured for host %q", name)
	}
	vm, err := snowConfig.VM.Resolve()
	if err != nil {
		return err
	}
	if snowConfig.TargetHost == "" {
		return snowerr.Configf("missing targetHost for host %q", name)
	}

	// Secrets need a placeholder key for the new host until the real one exists.
	if err := s.AgenixRekey(false, true); err != nil {
		return err
	}
	if err := s.GitAdd(false); err != nil {
		return err
	}

	if err := s.importImage(name, vm); err != nil {
		return err
	}

	logger.Info("Increasing disk size of disk \"vm_datastore:vm-%d-disk-0\" (virtio0) to %s...", vm.ID, vm.ResizeDiskTo)
	if err := s.exec.Silent(ssh(vm.ProxmoxHost, fmt.Sprintf("qm disk resize %d virtio0 %s", vm.ID, vm.ResizeDiskTo))); err != nil {
		return err
	}
	if err := s.exec.Silent(ssh(vm.ProxmoxHost, fmt.Sprintf("qm start %d", vm.ID))); err != nil {
		return err
	}

	logger.Info("Waiting for %s to come online to obtain its public ssh key...", name)
	pubKey, err := s.scanHostKey(name, vm.IP)
	if err != nil {
		return err
	}
	keyFile := filepath.Join(s.settings.KeysDir, fmt.Sprintf("ssh_host_%s_ed25519_key.pub", name))
	if err := os.MkdirAll(filepath.Dir(keyFile), 0o755); err != nil {
		return snowerr.IO(err)
	}
	if err := os.WriteFile(keyFile, []byte(pubKey), 0o644); err != nil {
		return snowerr.IO(err)
	}
	if err := s.GitAdd(false); err != nil {
		return err
	}

	// Rekey again, with the real key this time.
	if err := s.AgenixRekey(false, false); err != nil {
		return err
	}
	if err := s.GitAdd(false); err != nil {
		return err
	}
	if err := s.Rebuild(name, RebuildOptions{Mode: ModeBoot, sshOpts: provisionSSHOpts}); err != nil {
		return err
	}

	logger.Info("Rebooting %s...", name)
	if err := s.exec.Silent(ssh(vm.ProxmoxHost, fmt.Sprintf("qm reboot %d", vm.ID))); err != nil {
		return err
	}
	// Accepting the new host key and growing the root filesystem happen in one connection.
	if err := s.exec.Silent(ssh("-o", "StrictHostKeyChecking=accept-new", snowConfig.TargetHost, "sudo", "resize2fs /dev/vda2")); err != nil {
		return err
	}
	if err := s.recordVM(name, vm, pubKey); err != nil {
		return err
	}

	if opts.RebuildLocal {
		if err := s.Rebuild("", RebuildOptions{Mode: ModeSwitch}); err != nil {
			return err
		}
	}
	if opts.LoginAfter {
		if err := s.exec.Verbose(ssh(snowConfig.TargetHost)); err != nil {
			return err
		}
	}
	logger.Info("Done!")
	return nil
}

// importImage builds the Proxmox image of name, copies it to the image store, restores
// it as VM vm.ID and removes the intermediate files.
func (s *Snow) importImage(name string, vm config.VM) error {
	build := runner.Nix("nix", []string{"build", s.settings.Ref("nixosConfigurations." + name + ".config.formats.proxmox")}, false)
	if err := s.orCleanup(s.exec.Progress(build, name)); err != nil {
		return err
	}

	image := filepath.Join(vm.ProxmoxImageStore, fmt.Sprintf("vzdump-qemu-%d-%s.vma.zst", vm.ID, imageStamp))
	copyImage := runner.NewCommand("cp", []string{
		filepath.Join(s.resultPath, fmt.Sprintf("vzdump-qemu-%s.vma.zst", name)),
		image,
	}, false)
	logger.Info("Copying the VM image to the proxmox host...")
	if err := s.orCleanup(s.exec.Verbose(copyImage)); err != nil {
		return err
	}

	restore := ssh(vm.ProxmoxHost, fmt.Sprintf("qmrestore %s %d --unique true", image, vm.ID))
	if err := s.orCleanup(s.exec.ProgressImport(restore)); err != nil {
		return err
	}

	logger.Info("Performing cleanup tasks...")
	if err := os.RemoveAll(s.resultPath); err != nil {
		return snowerr.IO(err)
	}
	if err := os.Remove(image); err != nil && !errors.Is(err, os.ErrNotExist) {
		return snowerr.IO(err)
	}
	return nil
}

// scanHostKey polls ssh-keyscan until the VM answers with an ed25519 key and returns it
// in authorized_keys form, commented with name.
func (s *Snow) scanHostKey(name, ip string) (string, error) {
	scan := runner.NewCommand("ssh-keyscan", []string{ip}, false)
	for {
		// Give the machine time to boot.
		s.sleep(s.settings.KeyscanInterval)
		out, err := s.exec.Capture(scan)
		if err != nil {
			return "", err
		}
		for _, line := range strings.Split(out, "\n") {
			if strings.HasPrefix(line, ip) && strings.Contains(line, "ssh-ed25519") {
				key := strings.TrimSpace(strings.ReplaceAll(line, ip, ""))
				return key + " " + name, nil
			}
		}
		logger.Debug("No ed25519 key from %s yet", ip)
	}
}

func (s *Snow) recordVM(name string, vm config.VM, pubKey string) error {
	st := state.LoadState(s.settings.StateFile)
	st.Record(name, state.VMState{
		ID:            vm.ID,
		IP:            vm.IP,
		ProxmoxHost:   vm.ProxmoxHost,
		PublicKey:     pubKey,
		ProvisionedAt: time.Now().UTC(),
	})
	return state.SaveState(s.settings.StateFile, st)
}
