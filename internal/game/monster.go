package game

// MonsterAttributes are the combat attributes of a monster. Rarity drives the
// experience award for slaying it.
type MonsterAttributes struct {
	Rarity   string `bson:"rarity" json:"rarity"`
	Strength int    `bson:"strength" json:"strength"`
	Agility  int    `bson:"agility" json:"agility"`
}

// Monster is a catalog entry. Immutable after creation except via explicit
// administrative update.
type Monster struct {
	MonsterID  string            `bson:"monster_id" json:"monster_id"`
	Name       string            `bson:"name" json:"name"`
	Attributes MonsterAttributes `bson:"attributes" json:"attributes"`
	Location   string            `bson:"location" json:"location"`
}
