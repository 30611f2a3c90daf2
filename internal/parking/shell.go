package parking

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Shell is the interactive admin console: yard/spot setup, park and release,
// maintenance flagging and status inspection against a live engine.
type Shell struct {
	engine  *InstrumentedEngine
	scanner *bufio.Scanner
}

func NewShell(engine *InstrumentedEngine) *Shell {
	return &Shell{
		engine:  engine,
		scanner: bufio.NewScanner(os.Stdin),
	}
}

func (s *Shell) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if !s.scanner.Scan() {
			break
		}

		input := strings.TrimSpace(s.scanner.Text())
		if input == "" {
			continue
		}

		if !s.processCommand(ctx, input) {
			return
		}
	}
}

func (s *Shell) processCommand(ctx context.Context, input string) bool {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return true
	}

	command := parts[0]

	switch command {
	case "create_patio":
		s.handleCreateYard(parts)
	case "add_box":
		s.handleAddSpot(parts)
	case "register":
		s.handleRegisterVehicle(parts)
	case "park":
		s.handlePark(ctx, parts)
	case "release":
		s.handleRelease(ctx, parts)
	case "maintenance":
		s.handleMaintenance(parts)
	case "status":
		s.handleStatus()
	case "help":
		s.printHelp()
	case "exit", "quit":
		return false
	default:
		fmt.Printf("Unknown command: %s (try 'help')\n", command)
	}
	return true
}

func (s *Shell) printHelp() {
	fmt.Println(`Commands:
  create_patio <id> <name>        create a yard
  add_box <id> <patioId> <name>   add a spot to a yard
  register <plate> [model]        register a vehicle
  park <plate> [boxId]            park a vehicle (auto-selects a free spot)
  release <plate>                 release a parked vehicle
  maintenance <boxId> on|off      flag or unflag a spot for maintenance
  status                          show every spot
  exit                            quit`)
}

func (s *Shell) handleCreateYard(parts []string) {
	if len(parts) < 3 {
		fmt.Println("Usage: create_patio <id> <name>")
		return
	}

	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || id <= 0 {
		fmt.Println("Invalid yard id")
		return
	}

	yard, err := s.engine.Registry().AddYard(id, strings.Join(parts[2:], " "))
	if err != nil {
		fmt.Printf("Error: %s\n", err.Error())
		return
	}

	fmt.Printf("Created yard %d (%s)\n", yard.ID, yard.Name)
}

func (s *Shell) handleAddSpot(parts []string) {
	if len(parts) < 4 {
		fmt.Println("Usage: add_box <id> <patioId> <name>")
		return
	}

	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || id <= 0 {
		fmt.Println("Invalid spot id")
		return
	}
	yardID, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || yardID <= 0 {
		fmt.Println("Invalid yard id")
		return
	}

	spot, err := s.engine.Registry().AddSpot(id, yardID, strings.Join(parts[3:], " "))
	if err != nil {
		fmt.Printf("Error: %s\n", err.Error())
		return
	}

	fmt.Printf("Added spot %d (%s) to yard %d\n", spot.ID, spot.Name, spot.YardID)
}

func (s *Shell) handleRegisterVehicle(parts []string) {
	if len(parts) < 2 {
		fmt.Println("Usage: register <plate> [model]")
		return
	}

	model := ""
	if len(parts) > 2 {
		model = strings.Join(parts[2:], " ")
	}

	vehicle, err := s.engine.Registry().RegisterVehicle(parts[1], model)
	if err != nil {
		fmt.Printf("Error: %s\n", err.Error())
		return
	}

	fmt.Printf("Registered vehicle %s\n", vehicle.Plate)
}

func (s *Shell) handlePark(ctx context.Context, parts []string) {
	if len(parts) < 2 {
		fmt.Println("Usage: park <plate> [boxId]")
		return
	}

	var opts ParkOptions
	if len(parts) > 2 {
		id, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil || id <= 0 {
			fmt.Println("Invalid spot id")
			return
		}
		opts.SpotID = id
	}

	spot, err := s.engine.Park(ctx, parts[1], opts)
	if err != nil {
		fmt.Printf("Error: %s\n", err.Error())
		return
	}

	fmt.Printf("Allocated spot %d (%s) in yard %d\n", spot.ID, spot.Name, spot.YardID)
}

func (s *Shell) handleRelease(ctx context.Context, parts []string) {
	if len(parts) != 2 {
		fmt.Println("Usage: release <plate>")
		return
	}

	spot, err := s.engine.Release(ctx, parts[1])
	if err != nil {
		fmt.Printf("Error: %s\n", err.Error())
		return
	}

	fmt.Printf("Spot %d is free\n", spot.ID)
}

func (s *Shell) handleMaintenance(parts []string) {
	if len(parts) != 3 || (parts[2] != "on" && parts[2] != "off") {
		fmt.Println("Usage: maintenance <boxId> on|off")
		return
	}

	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || id <= 0 {
		fmt.Println("Invalid spot id")
		return
	}

	status := StatusMaintenance
	if parts[2] == "off" {
		status = StatusFree
	}

	spot, err := s.engine.Registry().SetStatus(id, status)
	if err != nil {
		fmt.Printf("Error: %s\n", err.Error())
		return
	}

	fmt.Printf("Spot %d status: %s\n", spot.ID, spot.Status)
}

func (s *Shell) handleStatus() {
	spots := s.engine.Registry().Spots()
	if len(spots) == 0 {
		fmt.Println("No spots configured")
		return
	}

	fmt.Println("Box\tPatio\tStatus\tPlate")
	for _, spot := range spots {
		plate := ""
		if spot.VehicleID != 0 {
			if v, ok := s.engine.Registry().VehicleByID(spot.VehicleID); ok {
				plate = v.Plate
			}
		}
		fmt.Printf("%d\t%d\t%s\t%s\n", spot.ID, spot.YardID, spot.Status, plate)
	}
}
