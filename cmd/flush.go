package cmd

import (
	"fmt"

	"grimm.is/portcullis/internal/config"
	"grimm.is/portcullis/internal/firewall"
)

// RunFlush clears all dynamic firewall state: every ban and every standing
// grant, across both address families. The base ruleset stays in place
// unless teardown is set, which deletes the whole table.
func RunFlush(configFile string, teardown bool) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	ctl := firewall.NewNFTController(&firewall.Ruleset{
		Table:          cfg.Firewall.Table,
		KnockPorts:     cfg.Knock.SequencePorts(),
		ProtectedPorts: cfg.Knock.Protected(),
		NFLogGroup:     cfg.Source.NFLogGroup,
	})

	if teardown {
		if err := ctl.Teardown(); err != nil {
			return fmt.Errorf("failed to delete table: %w", err)
		}
		fmt.Printf("Deleted table inet %s\n", cfg.Firewall.Table)
		return nil
	}

	if err := ctl.FlushDynamic(); err != nil {
		return fmt.Errorf("failed to flush dynamic state: %w", err)
	}

	fmt.Printf("Flushed all bans and grants from table inet %s\n", cfg.Firewall.Table)
	return nil
}
