package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/f1lt3r/subsynth/dsp"
	"github.com/f1lt3r/subsynth/preset"
	"github.com/f1lt3r/subsynth/synth"
)

const replHelp = `commands:
  on [note] [velocity]   gate on (default 60 127)
  off                    gate off
  set <param> [osc] <v>  edit a parameter (e.g. "set filter_freq 800",
                         "set osc_wave 1 square")
  cc <num> <value>       simulate a MIDI control change
  arp on|off             toggle the arpeggiator
  arp internal|clock     select the arpeggiator clock source
  random                 randomize the patch
  reset                  back to the default patch
  save <path>            write the patch as a preset file
  load <path>            load a preset file
  panic                  kill all voices
  quit`

// runCommandLoop reads line commands from stdin until EOF or quit.
func runCommandLoop(s *synth.Synth, presetPath string) {
	fmt.Println(replHelp)
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "quit", "exit":
			return
		case "help":
			fmt.Println(replHelp)
		case "on":
			note, vel := 60, 127
			if len(fields) > 1 {
				note = atoiOr(fields[1], note)
			}
			if len(fields) > 2 {
				vel = atoiOr(fields[2], vel)
			}
			s.GateOn(note, vel)
		case "off":
			s.GateOff()
		case "panic":
			s.KillAll()
		case "set":
			handleSet(s, fields[1:])
		case "cc":
			if len(fields) != 3 {
				fmt.Println("usage: cc <num> <value>")
				continue
			}
			s.ControlChange(uint8(atoiOr(fields[1], 0)), uint8(atoiOr(fields[2], 0)))
		case "arp":
			if len(fields) != 2 {
				fmt.Println("usage: arp on|off|internal|clock")
				continue
			}
			handleArp(s, fields[1])
		case "random":
			if err := s.Randomize(); err != nil {
				logger.Warn("randomize failed", "err", err)
			}
		case "reset":
			if err := s.LoadParams(synth.NewDefaultParams()); err != nil {
				logger.Warn("reset failed", "err", err)
			}
		case "save":
			path := presetPath
			if len(fields) > 1 {
				path = fields[1]
			}
			if path == "" {
				fmt.Println("usage: save <path>")
				continue
			}
			p := s.Params()
			if err := preset.SaveJSON(path, &p); err != nil {
				logger.Warn("save failed", "path", path, "err", err)
			} else {
				fmt.Println("saved", path)
			}
		case "load":
			if len(fields) != 2 {
				fmt.Println("usage: load <path>")
				continue
			}
			p, err := preset.LoadJSON(fields[1])
			if err != nil {
				logger.Warn("load failed", "path", fields[1], "err", err)
				continue
			}
			if err := s.LoadParams(p); err != nil {
				logger.Warn("load apply failed", "err", err)
			}
		default:
			fmt.Println("unknown command:", fields[0])
		}
	}
}

func handleSet(s *synth.Synth, args []string) {
	if len(args) < 2 {
		fmt.Println("usage: set <param> [osc] <value>")
		return
	}
	id, ok := synth.ParamByName(args[0])
	if !ok {
		fmt.Println("unknown parameter:", args[0])
		return
	}
	osc := 0
	valueStr := args[1]
	if id.IsOscParam() {
		if len(args) < 3 {
			fmt.Println("usage: set <osc param> <osc 1-3> <value>")
			return
		}
		osc = atoiOr(args[1], 1) - 1
		valueStr = args[2]
	}

	value, err := parseParamValue(id, valueStr)
	if err != nil {
		fmt.Println(err)
		return
	}
	stored, err := s.SetParam(id, osc, value)
	if err != nil {
		logger.Warn("set failed", "param", id.Name(), "err", err)
		return
	}
	fmt.Printf("%s = %g\n", id.Name(), stored)
}

// parseParamValue accepts numbers everywhere and names for the enumerated
// parameters.
func parseParamValue(id synth.ParamID, raw string) (float32, error) {
	switch id {
	case synth.ParamOscWave:
		if w, ok := synth.ParseWaveform(raw); ok {
			return float32(w), nil
		}
	case synth.ParamFilterType:
		if t, ok := dsp.ParseFilterType(raw); ok {
			return float32(t), nil
		}
	}
	v, err := strconv.ParseFloat(raw, 32)
	if err != nil {
		return 0, fmt.Errorf("bad value %q", raw)
	}
	return float32(v), nil
}

func handleArp(s *synth.Synth, arg string) {
	switch arg {
	case "on":
		_, _ = s.SetParam(synth.ParamArpEnabled, 0, 1)
	case "off":
		_, _ = s.SetParam(synth.ParamArpEnabled, 0, 0)
	case "internal":
		s.SetArpMode(synth.ArpInternal)
	case "clock":
		s.SetArpMode(synth.ArpClockSlave)
	default:
		fmt.Println("usage: arp on|off|internal|clock")
	}
}

func atoiOr(raw string, fallback int) int {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
