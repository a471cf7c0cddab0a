package chase

const testSize = 0.065

func testScene(wolves, sheep, blocks int) *Scene {
	p := DefaultParams()
	r := Roster{NumWolves: wolves, NumSheep: sheep, NumBlocks: blocks}
	return NewScene(r, p.Wolf, p.Sheep, p.Block, DefaultKillzone())
}

func at(x, y float64) EntityState {
	return EntityState{Pos: Vec2{x, y}}
}
