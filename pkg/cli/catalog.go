package cli

import (
	"fmt"
	"strings"

	"github.com/platinummonkey/launchpad/pkg/catalog"
)

// loadCatalog resolves -file before -catalog
func loadCatalog(name, file string) (*catalog.Catalog, error) {
	if file != "" {
		return catalog.LoadFile(file)
	}
	return catalog.ByName(name)
}

func newCatalogCommand(env *Env) *Command {
	cmd := &Command{
		Name:        "catalog",
		Description: "Print a plan catalog as YAML or validate a catalog file",
		Flags:       newFlagSet("catalog"),
	}
	name := cmd.Flags.String("catalog", catalog.BuilderCatalog, "Built-in catalog ("+strings.Join(catalog.Names(), ", ")+")")
	file := cmd.Flags.String("file", "", "Catalog YAML file, overrides -catalog")
	validate := cmd.Flags.Bool("validate", false, "Only validate the catalog")

	cmd.Run = func(args []string) error {
		if err := cmd.Flags.Parse(args); err != nil {
			return err
		}

		cat, err := loadCatalog(*name, *file)
		if err != nil {
			return err
		}
		env.Logger.WithField("catalog", cat.Name).Debug("Catalog loaded")

		if *validate {
			fmt.Fprintf(env.Out, "catalog %s is valid: %d plans, %d add-ons, %d credit packs\n",
				cat.Name, len(cat.Plans), len(cat.AddOns), len(cat.Packs))
			return nil
		}

		data, err := catalog.Encode(cat)
		if err != nil {
			return err
		}
		_, err = env.Out.Write(data)
		return err
	}
	return cmd
}

func newPriceCommand(env *Env) *Command {
	cmd := &Command{
		Name:        "price",
		Description: "Show plan prices for a billing cycle",
		Flags:       newFlagSet("price"),
	}
	name := cmd.Flags.String("catalog", catalog.BuilderCatalog, "Built-in catalog")
	file := cmd.Flags.String("file", "", "Catalog YAML file, overrides -catalog")
	planID := cmd.Flags.String("plan", "", "Plan to price (all plans when empty)")
	cycleName := cmd.Flags.String("cycle", string(catalog.CycleMonthly), "Billing cycle (monthly, annual)")
	addOns := cmd.Flags.String("add-ons", "", "Comma-separated add-ons to include in the total")

	cmd.Run = func(args []string) error {
		if err := cmd.Flags.Parse(args); err != nil {
			return err
		}

		cat, err := loadCatalog(*name, *file)
		if err != nil {
			return err
		}
		cycle, err := catalog.ParseCycle(*cycleName)
		if err != nil {
			return err
		}

		plans := cat.Plans
		if *planID != "" {
			plan, err := cat.Plan(catalog.PlanID(*planID))
			if err != nil {
				return err
			}
			plans = []catalog.Plan{plan}
		}

		for _, plan := range plans {
			price, err := catalog.PlanPrice(plan, cycle)
			if err != nil {
				return err
			}
			fmt.Fprintf(env.Out, "%-12s %-8s %10s\n", plan.ID, cycle, price.StringFixed(2))
		}

		if *addOns == "" {
			return nil
		}
		if len(plans) != 1 {
			return fmt.Errorf("-add-ons requires -plan")
		}

		total, err := catalog.PlanPrice(plans[0], cycle)
		if err != nil {
			return err
		}
		for _, id := range strings.Split(*addOns, ",") {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			addOn, err := cat.AddOn(catalog.AddOnID(id))
			if err != nil {
				return err
			}
			if plans[0].Implies(addOn.ID) {
				fmt.Fprintf(env.Out, "  + %-10s %19s\n", addOn.ID, "included")
				continue
			}
			fmt.Fprintf(env.Out, "  + %-10s %19s\n", addOn.ID, addOn.Price.StringFixed(2))
			total = total.Add(addOn.Price)
		}
		fmt.Fprintf(env.Out, "%-21s %10s\n", "total", total.Round(2).StringFixed(2))
		return nil
	}
	return cmd
}
