package extract

// osPayload is the os probe layout: cpu, memory, disk, network and ntp
// sections, each a mapping.
type osPayload struct {
	cpu    node
	memory node
	basics basics
}

func decodeOS(results node) osPayload {
	cpu := results.get("cpu")
	memory := results.get("memory")
	disk := results.get("disk")

	model := cpu.get("model")
	if _, ok := cpu.str(); ok {
		// older probes sent the model string directly
		model = cpu
	}
	return osPayload{
		cpu:    cpu,
		memory: memory,
		basics: basics{
			cpuModel: model,
			swap:     memory.get("swap"),
			rootDisk: disk.get("root_usage_percent"),
			allDisk:  disk.get("all"),
			ping:     results.path("network", "ping_result"),
			ntp:      results.path("ntp", "status"),
			osPing:   true,
		},
	}
}

type osExtractor struct{}

func (osExtractor) extract(results node, s *sheet) {
	p := decodeOS(results)

	s.set(colInstalled, NA)
	s.set(colInstallPath, NA)
	p.basics.apply(s)
	s.derive(colCPUTop, NA, func() string { return topFlag(p.cpu.get("top_processes")) })
	s.derive(colMemTop, NA, func() string { return topFlag(p.memory.get("top_processes")) })
	s.set(colProcCount, NA)
	s.set(colDBCount, NA)
	s.set(colDBList, NA)
	s.set(colTablespace, NA)
}
