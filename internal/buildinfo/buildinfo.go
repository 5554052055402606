package buildinfo

const Graffiti = " _____ ___ _____ __  __   _   _____ ___  _  _ \n|  ___|_ _|_   _|  \\/  | / \\ |_   _/ __|| || |\n| |_   | |  | | | |\\/| |/ _ \\  | || |   | __ |\n|  _|  | |  | | | |  | / ___ \\ | || |__ | || |\n|_|   |___| |_| |_|  |_/_/  \\_\\|_| \\___||_||_|\n\n"

var (
	BuildTag string = "v0.0.0"
	Name     string = "FITMATCH"
	Time     string = ""
)

type buildinfo struct{}

func (buildinfo) Tag() string {
	return BuildTag
}

func (buildinfo) Name() string {
	return Name
}

func (buildinfo) Time() string {
	return Time
}

var Info buildinfo
